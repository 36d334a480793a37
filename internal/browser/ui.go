package browser

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ValGrace/shelly/pkg/history"
)

var errNoStore = errors.New("no history store configured")

// FilterMode represents different filtering modes
type FilterMode int

const (
	NoFilter FilterMode = iota
	TextFilter
	DateRangeFilter
	StatusFilter
	CombinedFilter
)

// StatusFilterMode selects entries by how they ended
type StatusFilterMode int

const (
	AllStatuses StatusFilterMode = iota
	FailedOnly
	SucceededOnly
	ExplainedOnly
)

func (s StatusFilterMode) String() string {
	switch s {
	case FailedOnly:
		return "failed"
	case SucceededOnly:
		return "succeeded"
	case ExplainedOnly:
		return "explained"
	default:
		return "all"
	}
}

func (s StatusFilterMode) matches(e history.Entry) bool {
	switch s {
	case FailedOnly:
		return e.ExitCode != nil && *e.ExitCode != 0
	case SucceededOnly:
		return e.ExitCode != nil && *e.ExitCode == 0
	case ExplainedOnly:
		return e.ExitCode == nil
	default:
		return true
	}
}

// DateFilterConfig represents date range filtering options
type DateFilterConfig struct {
	Enabled   bool
	StartTime time.Time
	EndTime   time.Time
	Preset    DatePreset
}

// DatePreset represents common date range presets
type DatePreset int

const (
	NoDatePreset DatePreset = iota
	Today
	Yesterday
	ThisWeek
	LastWeek
	ThisMonth
	LastMonth
)

// UIModel represents the bubbletea model for the history browser
type UIModel struct {
	// Core state
	entries  []history.Entry
	filtered []history.Entry

	// Selection and navigation
	selectedIndex int
	scrollOffset  int

	// Search and filtering
	searchInput  textinput.Model
	searchMode   bool
	filterMode   FilterMode
	dateFilter   DateFilterConfig
	statusFilter StatusFilterMode
	showFilters  bool

	// UI dimensions
	width  int
	height int

	// Dependencies
	store history.HistoryStore
	now   func() time.Time

	// UI state
	loaded      bool
	quitting    bool
	error       error
	selected    *history.Entry
	showPreview bool
}

// NewUIModel creates a new terminal UI model
func NewUIModel(store history.HistoryStore) UIModel {
	input := textinput.New()
	input.Placeholder = "filter commands..."
	input.Prompt = "🔍 "
	input.CharLimit = 200
	input.Width = 40

	return UIModel{
		entries:      []history.Entry{},
		filtered:     []history.Entry{},
		searchInput:  input,
		filterMode:   NoFilter,
		dateFilter:   DateFilterConfig{Enabled: false},
		statusFilter: AllStatuses,
		width:        80,
		height:       24,
		store:        store,
		now:          time.Now,
	}
}

// Init implements tea.Model
func (m UIModel) Init() tea.Cmd {
	return loadEntries(m.store)
}

// Update implements tea.Model
func (m UIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case entriesMsg:
		m.entries = msg.entries
		m.loaded = true
		return m.applyFilters(), nil

	case errorMsg:
		m.error = msg.error
		return m, nil
	}

	return m, nil
}

// View implements tea.Model
func (m UIModel) View() string {
	if m.quitting {
		return ""
	}

	if m.error != nil {
		return fmt.Sprintf("Error: %v\n\nPress 'q' to quit.", m.error)
	}

	return m.renderHistoryView()
}

// handleKeyPress processes keyboard input
func (m UIModel) handleKeyPress(msg tea.KeyMsg) (UIModel, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	// Search mode owns every other key so that letters reach the input
	if m.searchMode {
		return m.handleSearchInput(msg)
	}

	switch msg.String() {
	case "q", "esc":
		m.quitting = true
		return m, tea.Quit

	case "/":
		m.searchMode = true
		cmd := m.searchInput.Focus()
		return m, cmd

	case "f":
		// Toggle filter panel
		m.showFilters = !m.showFilters
		return m, nil
	}

	// Filter mode key bindings
	if m.showFilters {
		switch msg.String() {
		case "d":
			m.dateFilter.Enabled = !m.dateFilter.Enabled
			if m.dateFilter.Enabled {
				m.dateFilter.Preset = Today
			}
			return m.applyDateFilter(), nil
		case "1", "2", "3", "4", "5", "6":
			// Quick date preset selection
			if m.dateFilter.Enabled {
				m.dateFilter.Preset = DatePreset(int(msg.String()[0] - '0'))
				return m.applyDateFilter(), nil
			}
		case "n":
			if m.dateFilter.Enabled {
				return m.cycleDatePreset(), nil
			}
		case "s":
			m.statusFilter = (m.statusFilter + 1) % 4
			return m.applyFilters(), nil
		case "c":
			return m.clearFilters(), nil
		}
	}

	// Navigation key bindings
	switch msg.String() {
	case "up", "k":
		return m.moveUp(), nil

	case "down", "j":
		return m.moveDown(), nil

	case "pgup":
		for i := 0; i < m.visibleLines(); i++ {
			m = m.moveUp()
		}
		return m, nil

	case "pgdown":
		for i := 0; i < m.visibleLines(); i++ {
			m = m.moveDown()
		}
		return m, nil

	case "home", "g":
		m.selectedIndex = 0
		m.scrollOffset = 0
		return m, nil

	case "end", "G":
		for m.selectedIndex < m.getMaxIndex() {
			m = m.moveDown()
		}
		return m, nil

	case "enter":
		return m.selectItem()

	case " ", "space":
		m.showPreview = !m.showPreview
		return m, nil

	case "r":
		return m, loadEntries(m.store)
	}

	return m, nil
}

// handleSearchInput processes search mode input
func (m UIModel) handleSearchInput(msg tea.KeyMsg) (UIModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searchMode = false
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		return m.applyFilters(), nil

	case "enter":
		m.searchMode = false
		m.searchInput.Blur()
		return m.applyFilters(), nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m.applyFilters(), cmd
}

// visibleLines is the number of rows available to the entry list
func (m UIModel) visibleLines() int {
	lines := m.height - 8 // Account for header, column titles, footer
	if m.showFilters {
		lines -= 2
	}
	if m.searchMode || m.searchInput.Value() != "" {
		lines--
	}
	if m.showPreview {
		lines -= 7
	}
	if lines < 1 {
		lines = 1
	}
	return lines
}

// moveUp moves selection up
func (m UIModel) moveUp() UIModel {
	if m.selectedIndex > 0 {
		m.selectedIndex--

		// Adjust scroll offset if needed
		if m.selectedIndex < m.scrollOffset {
			m.scrollOffset = m.selectedIndex
		}
	}
	return m
}

// moveDown moves selection down
func (m UIModel) moveDown() UIModel {
	if m.selectedIndex < m.getMaxIndex() {
		m.selectedIndex++

		visible := m.visibleLines()
		if m.selectedIndex >= m.scrollOffset+visible {
			m.scrollOffset = m.selectedIndex - visible + 1
		}
	}
	return m
}

// getMaxIndex returns the maximum selectable index
func (m UIModel) getMaxIndex() int {
	if len(m.filtered) == 0 {
		return 0
	}
	return len(m.filtered) - 1
}

// selectItem records the highlighted entry and ends the program
func (m UIModel) selectItem() (UIModel, tea.Cmd) {
	if len(m.filtered) == 0 || m.selectedIndex >= len(m.filtered) {
		return m, nil
	}
	entry := m.filtered[m.selectedIndex]
	m.selected = &entry
	m.quitting = true
	return m, tea.Quit
}

// GetSelectedEntry returns the entry chosen with enter, if any
func (m UIModel) GetSelectedEntry() *history.Entry {
	return m.selected
}

// Styles for UI components
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("240"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			Background(lipgloss.Color("57"))

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	searchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Background(lipgloss.Color("235"))

	recentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46"))
)

// applyDateFilter computes the active preset's range and refilters
func (m UIModel) applyDateFilter() UIModel {
	if !m.dateFilter.Enabled {
		return m.applyFilters()
	}

	now := m.now()
	switch m.dateFilter.Preset {
	case Today:
		m.dateFilter.StartTime = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		m.dateFilter.EndTime = m.dateFilter.StartTime.Add(24 * time.Hour)
	case Yesterday:
		yesterday := now.AddDate(0, 0, -1)
		m.dateFilter.StartTime = time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 0, 0, 0, 0, yesterday.Location())
		m.dateFilter.EndTime = m.dateFilter.StartTime.Add(24 * time.Hour)
	case ThisWeek:
		// Start of week (Monday)
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday = 7
		}
		monday := now.AddDate(0, 0, -(weekday - 1))
		m.dateFilter.StartTime = time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, monday.Location())
		m.dateFilter.EndTime = m.dateFilter.StartTime.Add(7 * 24 * time.Hour)
	case LastWeek:
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		lastMonday := now.AddDate(0, 0, -(weekday + 6))
		m.dateFilter.StartTime = time.Date(lastMonday.Year(), lastMonday.Month(), lastMonday.Day(), 0, 0, 0, 0, lastMonday.Location())
		m.dateFilter.EndTime = m.dateFilter.StartTime.Add(7 * 24 * time.Hour)
	case ThisMonth:
		m.dateFilter.StartTime = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		m.dateFilter.EndTime = m.dateFilter.StartTime.AddDate(0, 1, 0)
	case LastMonth:
		lastMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -1, 0)
		m.dateFilter.StartTime = lastMonth
		m.dateFilter.EndTime = lastMonth.AddDate(0, 1, 0)
	}

	return m.applyFilters()
}

// applyFilters applies all active filters to the entry list
func (m UIModel) applyFilters() UIModel {
	query := strings.ToLower(strings.TrimSpace(m.searchInput.Value()))
	m.filtered = []history.Entry{}

	var active []FilterMode
	if query != "" {
		active = append(active, TextFilter)
	}
	if m.dateFilter.Enabled {
		active = append(active, DateRangeFilter)
	}
	if m.statusFilter != AllStatuses {
		active = append(active, StatusFilter)
	}

	for _, e := range m.entries {
		if query != "" && !strings.Contains(strings.ToLower(e.Command), query) {
			continue
		}

		if m.dateFilter.Enabled {
			if e.Timestamp.Before(m.dateFilter.StartTime) || !e.Timestamp.Before(m.dateFilter.EndTime) {
				continue
			}
		}

		if !m.statusFilter.matches(e) {
			continue
		}

		m.filtered = append(m.filtered, e)
	}

	switch len(active) {
	case 0:
		m.filterMode = NoFilter
	case 1:
		m.filterMode = active[0]
	default:
		m.filterMode = CombinedFilter
	}

	m.selectedIndex = 0
	m.scrollOffset = 0
	return m
}

// clearFilters removes all active filters
func (m UIModel) clearFilters() UIModel {
	m.searchInput.SetValue("")
	m.searchMode = false
	m.dateFilter.Enabled = false
	m.statusFilter = AllStatuses
	return m.applyFilters()
}

// cycleDatePreset cycles through date filter presets
func (m UIModel) cycleDatePreset() UIModel {
	if m.dateFilter.Preset >= LastMonth || m.dateFilter.Preset < Today {
		m.dateFilter.Preset = Today
	} else {
		m.dateFilter.Preset++
	}
	return m.applyDateFilter()
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	} else if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}
