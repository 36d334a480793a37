package browser

import (
	"fmt"
	"strings"
	"time"

	"github.com/ValGrace/shelly/pkg/history"
)

// renderHistoryView renders the entry list with header, filters and footer
func (m UIModel) renderHistoryView() string {
	var b strings.Builder

	shown := len(m.filtered)
	total := len(m.entries)

	var header string
	if shown != total {
		header = fmt.Sprintf("📜 Command History (%d of %d entries)", shown, total)
	} else {
		header = fmt.Sprintf("📜 Command History (%d entries)", total)
	}
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	if total > 0 {
		b.WriteString(dimStyle.Render("📅 " + m.lastActivity()))
		b.WriteString("\n")
	}

	if m.searchMode || m.searchInput.Value() != "" {
		b.WriteString(m.searchInput.View())
		b.WriteString("\n")
	}

	if m.showFilters {
		b.WriteString(m.renderFilterPanel())
		b.WriteString("\n")
	}

	b.WriteString("\n")

	if len(m.filtered) == 0 {
		b.WriteString(m.renderEmptyState())
	} else {
		b.WriteString(m.renderEntries())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

// lastActivity describes when the newest entry was recorded
func (m UIModel) lastActivity() string {
	mostRecent := m.entries[0]
	timeSince := m.now().Sub(mostRecent.Timestamp)
	switch {
	case timeSince < time.Hour:
		return fmt.Sprintf("Last command: %s ago", formatDuration(timeSince))
	case timeSince < 24*time.Hour:
		return fmt.Sprintf("Last command: %s", mostRecent.Timestamp.Local().Format("15:04 today"))
	default:
		return fmt.Sprintf("Last command: %s", mostRecent.Timestamp.Local().Format("Jan 02 15:04"))
	}
}

func (m UIModel) renderEmptyState() string {
	var b strings.Builder
	switch {
	case !m.loaded:
		b.WriteString(dimStyle.Render("⏳ Loading history..."))
	case len(m.entries) == 0:
		b.WriteString(dimStyle.Render("📭 No commands recorded yet."))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("   Commands run through shelly will appear here."))
	case m.searchInput.Value() != "":
		b.WriteString(dimStyle.Render("🔍 No commands found matching search criteria."))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("   Try a different search term or press esc to clear it."))
	default:
		b.WriteString(dimStyle.Render("🚫 All commands are filtered out."))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("   Open filters with 'f' and clear them with 'c'."))
	}
	b.WriteString("\n")
	return b.String()
}

func (m UIModel) renderEntries() string {
	var b strings.Builder

	cmdWidth := m.commandWidth()
	headerLine := fmt.Sprintf("%3s │ %-*s │ %-16s │ %s", "#", cmdWidth, "Command", "Time", "Status")
	b.WriteString(dimStyle.Render(headerLine))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(strings.Repeat("─", len([]rune(headerLine)))))
	b.WriteString("\n")

	visible := m.visibleLines()
	start := m.scrollOffset
	end := start + visible
	if end > len(m.filtered) {
		end = len(m.filtered)
	}

	for i := start; i < end; i++ {
		b.WriteString(m.formatEntryLine(m.filtered[i], i == m.selectedIndex, i))
		b.WriteString("\n")
	}

	if len(m.filtered) > visible {
		scrollInfo := fmt.Sprintf("📄 Showing %d-%d of %d commands", start+1, end, len(m.filtered))

		var navHints []string
		if start > 0 {
			navHints = append(navHints, "↑ more above")
		}
		if end < len(m.filtered) {
			navHints = append(navHints, "↓ more below")
		}
		if len(navHints) > 0 {
			scrollInfo += fmt.Sprintf(" (%s)", strings.Join(navHints, ", "))
		}

		b.WriteString(dimStyle.Render(scrollInfo))
		b.WriteString("\n")
	}

	if m.showPreview && m.selectedIndex < len(m.filtered) {
		b.WriteString("\n")
		b.WriteString(m.renderEntryPreview(m.filtered[m.selectedIndex]))
	}

	return b.String()
}

func (m UIModel) commandWidth() int {
	width := m.width - 40 // Leave space for index, timestamp and status
	if width < 20 {
		width = 20
	}
	return width
}

// formatEntryLine formats one entry, highlighting selection and failures
func (m UIModel) formatEntryLine(e history.Entry, selected bool, index int) string {
	maxCmdWidth := m.commandWidth()

	command := strings.ReplaceAll(e.Command, "\n", " ")
	if r := []rune(command); len(r) > maxCmdWidth {
		command = string(r[:maxCmdWidth-3]) + "..."
	}

	timeSince := m.now().Sub(e.Timestamp)
	line := fmt.Sprintf("%3d │ %-*s │ %-16s │ %s",
		index+1, maxCmdWidth, command, m.formatTimestamp(e.Timestamp), statusIndicator(e))

	switch {
	case selected:
		return selectedStyle.Render("▶ " + line)
	case e.ExitCode != nil && *e.ExitCode != 0:
		return errorStyle.Render("  " + line)
	case timeSince < 5*time.Minute:
		return recentStyle.Render("  " + line)
	}
	return normalStyle.Render("  " + line)
}

// formatTimestamp shows recent entries relative to now and older ones by date
func (m UIModel) formatTimestamp(ts time.Time) string {
	now := m.now()
	local := ts.Local()
	timeSince := now.Sub(ts)

	switch {
	case local.Format("2006-01-02") == now.Local().Format("2006-01-02"):
		if timeSince < time.Hour {
			return fmt.Sprintf("%s (%s ago)", local.Format("15:04"), formatDuration(timeSince))
		}
		return local.Format("15:04:05")
	case timeSince < 7*24*time.Hour:
		return local.Format("Mon 15:04")
	default:
		return local.Format("2006-01-02 15:04")
	}
}

func statusIndicator(e history.Entry) string {
	switch {
	case e.ExitCode == nil:
		return "📝 explained"
	case *e.ExitCode == 0:
		return "✅"
	default:
		return fmt.Sprintf("❌ %d", *e.ExitCode)
	}
}

// renderFilterPanel shows active filters and the filter key bindings
func (m UIModel) renderFilterPanel() string {
	var b strings.Builder

	b.WriteString(dimStyle.Render("Filters: "))

	var active []string
	if q := m.searchInput.Value(); q != "" {
		active = append(active, "Text: "+searchStyle.Render(q))
	}
	if m.dateFilter.Enabled {
		active = append(active, "Date: "+selectedStyle.Render(m.getDatePresetName(m.dateFilter.Preset)))
	}
	if m.statusFilter != AllStatuses {
		active = append(active, "Status: "+selectedStyle.Render(m.statusFilter.String()))
	}

	if len(active) == 0 {
		b.WriteString(dimStyle.Render("None active"))
	} else {
		b.WriteString(strings.Join(active, " "))
	}

	b.WriteString("\n")
	help := []string{"d: toggle date", "s: cycle status", "c: clear all"}
	if m.dateFilter.Enabled {
		help = append(help, "1-6/n: date presets")
	}
	b.WriteString(dimStyle.Render(strings.Join(help, " • ")))

	return b.String()
}

// getDatePresetName returns a display name for a date preset
func (m UIModel) getDatePresetName(preset DatePreset) string {
	switch preset {
	case Today:
		return "Today"
	case Yesterday:
		return "Yesterday"
	case ThisWeek:
		return "This Week"
	case LastWeek:
		return "Last Week"
	case ThisMonth:
		return "This Month"
	case LastMonth:
		return "Last Month"
	default:
		return "Custom"
	}
}

// renderEntryPreview renders the detail pane for the selected entry
func (m UIModel) renderEntryPreview(e history.Entry) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Command Preview"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Command: %s\n", normalStyle.Render(e.Command)))
	b.WriteString(fmt.Sprintf("Recorded: %s\n", dimStyle.Render(e.Timestamp.Local().Format("2006-01-02 15:04:05"))))

	switch {
	case e.ExitCode == nil:
		b.WriteString(fmt.Sprintf("Exit Code: %s\n", dimStyle.Render("n/a (explained text)")))
	case *e.ExitCode != 0:
		b.WriteString(fmt.Sprintf("Exit Code: %s\n", errorStyle.Render(fmt.Sprintf("%d", *e.ExitCode))))
	default:
		b.WriteString(fmt.Sprintf("Exit Code: %s\n", dimStyle.Render("0 (success)")))
	}

	return b.String()
}

// renderFooter renders the help text footer
func (m UIModel) renderFooter() string {
	var help []string

	switch {
	case m.searchMode:
		help = []string{"type to search", "enter: apply", "esc: cancel"}
	case m.showFilters:
		help = []string{"↑/k: up", "↓/j: down", "enter: run", "f: hide filters", "q: quit"}
	case len(m.filtered) > 0:
		help = []string{"↑/k: up", "↓/j: down", "enter: run", "space: preview", "/: search", "f: filters", "r: refresh", "q: quit"}
	default:
		help = []string{"/: search", "f: filters", "r: refresh", "q: quit"}
	}

	return dimStyle.Render(strings.Join(help, " • "))
}
