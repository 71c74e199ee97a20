package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"iot-dashboard/joins"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("208")).
			MarginBottom(1)

	tabStyle = lipgloss.NewStyle().
			Padding(0, 2)

	activeTabStyle = tabStyle.
			Foreground(lipgloss.Color("208")).
			Bold(true).
			Underline(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170")).
			Bold(true).
			PaddingLeft(2)

	normalStyle = lipgloss.NewStyle().
			PaddingLeft(4)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

type tab int

const (
	tabOverview tab = iota
	tabSensors
	tabMap
)

var tabNames = []string{"Overview", "Sensors", "Map"}

// api is the part of the REST client the dashboard needs.
type api interface {
	Dashboard(ctx context.Context) (*joins.Dashboard, error)
	SensorLocations(ctx context.Context) ([]joins.SensorLocation, error)
	Markers(ctx context.Context) ([]joins.Marker, error)
	SensorStats(ctx context.Context, sensorID string) (*joins.Stats, error)
}

type model struct {
	ctx    context.Context
	cancel context.CancelFunc
	api    api

	tab       tab
	cursor    int
	loading   bool
	err       error
	dashboard *joins.Dashboard
	sensors   []joins.SensorLocation
	markers   []joins.Marker
	stats     *joins.Stats
	statsFor  string
	quitting  bool
}

type dashboardMsg struct{ d *joins.Dashboard }
type sensorsMsg []joins.SensorLocation
type markersMsg []joins.Marker
type statsMsg struct {
	sensorID string
	stats    *joins.Stats
}
type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

func initialModel(ctx context.Context, client api) model {
	ctx, cancel := context.WithCancel(ctx)
	return model{ctx: ctx, cancel: cancel, api: client, loading: true}
}

// fetch runs f and drops its result once the view has been torn down.
func (m model) fetch(f func(ctx context.Context) (tea.Msg, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		msg, err := f(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return errMsg{err}
		}
		return msg
	}
}

func (m model) load() tea.Cmd {
	switch m.tab {
	case tabSensors:
		return m.fetch(func(ctx context.Context) (tea.Msg, error) {
			rows, err := m.api.SensorLocations(ctx)
			return sensorsMsg(rows), err
		})
	case tabMap:
		return m.fetch(func(ctx context.Context) (tea.Msg, error) {
			markers, err := m.api.Markers(ctx)
			return markersMsg(markers), err
		})
	default:
		return m.fetch(func(ctx context.Context) (tea.Msg, error) {
			d, err := m.api.Dashboard(ctx)
			return dashboardMsg{d}, err
		})
	}
}

func (m model) loadStats(sensorID string) tea.Cmd {
	return m.fetch(func(ctx context.Context) (tea.Msg, error) {
		st, err := m.api.SensorStats(ctx, sensorID)
		return statsMsg{sensorID: sensorID, stats: st}, err
	})
}

func (m model) Init() tea.Cmd {
	return m.load()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			m.cancel()
			return m, tea.Quit

		case "tab", "right", "l":
			m.tab = (m.tab + 1) % tab(len(tabNames))
			m.cursor, m.err, m.loading = 0, nil, true
			return m, m.load()

		case "shift+tab", "left", "h":
			m.tab = (m.tab + tab(len(tabNames)) - 1) % tab(len(tabNames))
			m.cursor, m.err, m.loading = 0, nil, true
			return m, m.load()

		case "r":
			m.err, m.loading = nil, true
			return m, m.load()

		case "up", "k":
			if m.tab == tabSensors && m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.tab == tabSensors && m.cursor < len(m.sensors)-1 {
				m.cursor++
			}

		case "enter":
			if m.tab == tabSensors && len(m.sensors) > 0 {
				id := m.sensors[m.cursor].ID
				m.stats, m.statsFor = nil, id
				return m, m.loadStats(id)
			}
		}

	case dashboardMsg:
		m.loading = false
		m.dashboard = msg.d

	case sensorsMsg:
		m.loading = false
		m.sensors = []joins.SensorLocation(msg)
		if m.cursor >= len(m.sensors) {
			m.cursor = 0
		}

	case markersMsg:
		m.loading = false
		m.markers = []joins.Marker(msg)

	case statsMsg:
		if msg.sensorID == m.statsFor {
			m.stats = msg.stats
		}

	case errMsg:
		m.loading = false
		m.err = msg.err
	}

	return m, nil
}

func orNA(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

func orUnknown(s *string) string {
	if s == nil {
		return "unknown"
	}
	return *s
}

func sortedCounts[K ~string](counts map[K]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%-16s %d", k, counts[K(k)]))
	}
	return lines
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("IoT Dashboard") + "\n")

	tabs := make([]string, len(tabNames))
	for i, name := range tabNames {
		if tab(i) == m.tab {
			tabs[i] = activeTabStyle.Render(name)
		} else {
			tabs[i] = tabStyle.Render(name)
		}
	}
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n\n")

	switch {
	case m.err != nil:
		s.WriteString(errorStyle.Render("✗ "+m.err.Error()) + "\n")
	case m.loading:
		s.WriteString("Loading...\n")
	default:
		switch m.tab {
		case tabOverview:
			m.viewOverview(&s)
		case tabSensors:
			m.viewSensors(&s)
		case tabMap:
			m.viewMap(&s)
		}
	}

	s.WriteString(mutedStyle.Render("\ntab switch view, r refresh, q quit") + "\n")
	return s.String()
}

func (m model) viewOverview(s *strings.Builder) {
	d := m.dashboard
	if d == nil {
		return
	}
	fmt.Fprintf(s, "%s\n\n", d.Date.Format("Monday 2 January 2006"))
	fmt.Fprintf(s, "Users    %d\nSensors  %d\nMeasures %d\n\n", d.Users, d.Sensors, d.Measures)
	s.WriteString("Users by location\n")
	for _, line := range sortedCounts(d.UsersByLocation) {
		s.WriteString(normalStyle.Render(line) + "\n")
	}
	s.WriteString("\nMeasures by type\n")
	for _, line := range sortedCounts(d.MeasuresByType) {
		s.WriteString(normalStyle.Render(line) + "\n")
	}
}

func (m model) viewSensors(s *strings.Builder) {
	if len(m.sensors) == 0 {
		s.WriteString("No sensors.\n")
		return
	}
	for i, row := range m.sensors {
		line := fmt.Sprintf("%s %s in %s (%s)", row.Type, row.Model, row.Location, orUnknown(row.UserLocation))
		if i == m.cursor {
			s.WriteString(selectedStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString(normalStyle.Render(line) + "\n")
		}
	}
	if m.statsFor != "" && m.stats != nil {
		st := m.stats
		fmt.Fprintf(s, "\n%d measures, mean %s, min %s, max %s\n", st.Count, orNA(st.Mean), orNA(st.Min), orNA(st.Max))
		if st.Latest != nil {
			fmt.Fprintf(s, "latest %s %.2f at %s\n", st.Latest.Type, st.Latest.Value, st.Latest.CreationDate.Format("2006-01-02 15:04"))
		}
	}
}

func (m model) viewMap(s *strings.Builder) {
	if len(m.markers) == 0 {
		s.WriteString("No known countries.\n")
		return
	}
	for _, mk := range m.markers {
		fmt.Fprintf(s, "%-16s %8.3f %9.3f  size %.3f\n", mk.Country, mk.Location.Lat, mk.Location.Lng, mk.Size)
	}
}
