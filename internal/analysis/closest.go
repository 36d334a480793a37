package analysis

import (
	"sort"
	"strings"
)

// ClosestCommands ranks available commands by edit distance to failed and
// returns up to max close matches. It serves as the offline fallback when no
// analysis service is configured.
func ClosestCommands(failed string, available []string, max int) []string {
	failed = strings.ToLower(strings.TrimSpace(failed))
	if failed == "" {
		return nil
	}

	type candidate struct {
		name     string
		distance int
	}

	// Allow roughly one edit per three characters
	limit := len([]rune(failed))/3 + 1

	var candidates []candidate
	for _, name := range available {
		if name == failed {
			continue
		}
		d := levenshteinDistance(failed, strings.ToLower(name))
		if d <= limit {
			candidates = append(candidates, candidate{name, d})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].name < candidates[j].name
	})

	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.name)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}

// levenshteinDistance calculates the optimal string alignment distance
// between two strings: an adjacent transposition counts as one edit, but a
// transposed pair is never edited again
func levenshteinDistance(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)

	rows, cols := len(r1)+1, len(r2)+1
	matrix := make([][]int, rows)
	for i := 0; i < rows; i++ {
		matrix[i] = make([]int, cols)
		matrix[i][0] = i
	}
	for j := 1; j < cols; j++ {
		matrix[0][j] = j
	}

	for i := 1; i < rows; i++ {
		for j := 1; j < cols; j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}

			matrix[i][j] = min(
				matrix[i-1][j]+1,
				matrix[i][j-1]+1,
				matrix[i-1][j-1]+cost,
			)

			if i > 1 && j > 1 && r1[i-1] == r2[j-2] && r1[i-2] == r2[j-1] {
				matrix[i][j] = min(matrix[i][j], matrix[i-2][j-2]+cost)
			}
		}
	}

	return matrix[rows-1][cols-1]
}
