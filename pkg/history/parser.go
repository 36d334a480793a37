package history

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// zshExtendedLine matches the EXTENDED_HISTORY envelope ": <start>:<elapsed>;<command>"
var zshExtendedLine = regexp.MustCompile(`^:\s*(\d+):(\d+);(.*)$`)

const (
	fishCommandMarker = "- cmd: "
	fishWhenKey       = "when:"
)

// ParseZsh parses zsh history. Lines carrying the extended envelope yield the
// command after the first ';'. Other lines are kept as-is unless they are bare
// colon-prefixed control lines.
func ParseZsh(content string) []CommandRecord {
	var records []CommandRecord
	for _, line := range splitLines(content) {
		if m := zshExtendedLine.FindStringSubmatch(line); m != nil {
			record := CommandRecord{Command: strings.TrimSpace(m[3])}
			if start, err := strconv.ParseInt(m[1], 10, 64); err == nil {
				record.Timestamp = time.Unix(start, 0)
			}
			if elapsed, err := strconv.ParseInt(m[2], 10, 64); err == nil && elapsed <= math.MaxInt64/int64(time.Second) {
				record.Duration = time.Duration(elapsed) * time.Second
			}
			records = append(records, record)
			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, ":") {
			continue
		}
		records = append(records, CommandRecord{Command: trimmed})
	}
	return records
}

// ParseFlat parses newline-delimited history files without an envelope
// (bash, tcsh, csh, PowerShell's PSReadLine file).
func ParseFlat(content string) []CommandRecord {
	var records []CommandRecord
	for _, line := range splitLines(content) {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			records = append(records, CommandRecord{Command: trimmed})
		}
	}
	return records
}

// ParseFish parses fish_history. Each "- cmd: " line starts a record; an
// indented "when:" line only adds a timestamp to the record before it.
func ParseFish(content string) []CommandRecord {
	var records []CommandRecord
	for _, line := range splitLines(content) {
		if strings.HasPrefix(line, fishCommandMarker) {
			records = append(records, CommandRecord{
				Command: strings.TrimSpace(strings.TrimPrefix(line, fishCommandMarker)),
			})
			continue
		}

		trimmed := strings.TrimSpace(line)
		if len(records) == 0 || !strings.HasPrefix(trimmed, fishWhenKey) {
			continue
		}
		value := strings.TrimSpace(strings.TrimPrefix(trimmed, fishWhenKey))
		if when, err := strconv.ParseInt(value, 10, 64); err == nil {
			records[len(records)-1].Timestamp = time.Unix(when, 0)
		}
	}
	return records
}

func splitLines(content string) []string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
