package controller

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	m "github.com/tinwren/hdlcov/internal/model"
)

// fileRow holds the outcome for one instrumented netlist.
type fileRow struct {
	file    string
	status  string
	points  int
	failure string
}

// Implement list.Item interface for fileRow.
func (r fileRow) FilterValue() string {
	return r.file + " " + r.status
}

// fileRowDelegate is the delegate for rendering completed netlists in the list.
type fileRowDelegate struct {
	offset int
}

func (d fileRowDelegate) Height() int  { return 1 }
func (d fileRowDelegate) Spacing() int { return 0 }
func (d fileRowDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

func (d fileRowDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	row, ok := item.(fileRow)
	if !ok {
		return
	}

	isSelected := index == m.Index()
	fileWidth := m.Width() - 24 // Reserve space for Status and Points columns and spacing

	statusStyle, pointsStyle, fileStyle, displayFile := d.stylesAndFile(row, isSelected, fileWidth)

	line := fmt.Sprintf("%s  %s  %s",
		statusStyle.Render(fmt.Sprintf("%-8s", row.status)),
		pointsStyle.Render(fmt.Sprintf("%8d", row.points)),
		fileStyle.Render(displayFile),
	)
	_, _ = fmt.Fprint(w, line)
}

func (d fileRowDelegate) stylesAndFile(row fileRow, isSelected bool, fileWidth int) (lipgloss.Style, lipgloss.Style, lipgloss.Style, string) {
	if isSelected {
		selected := lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("6")).
			Bold(true)

		return selected.Width(10).Align(lipgloss.Left),
			selected.Width(10).Align(lipgloss.Left),
			selected,
			animateScroll(row.file, fileWidth, d.offset)
	}

	statusColorMap := map[string]lipgloss.Color{
		"ok":     lipgloss.Color("2"), // Green
		"failed": lipgloss.Color("1"), // Red
	}

	statusColor, ok := statusColorMap[row.status]
	if !ok {
		statusColor = lipgloss.Color("8")
	}

	return lipgloss.NewStyle().
			Foreground(statusColor).
			Bold(true).
			Width(10).
			Align(lipgloss.Left),
		lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true).
			Width(10).
			Align(lipgloss.Left),
		lipgloss.NewStyle().
			Foreground(lipgloss.Color("14")),
		truncateToWidth(row.file, fileWidth)
}

// runModel handles the TUI display during instrumentation runs.
type runModel struct {
	width           int
	height          int
	progressBar     progress.Model
	totalFiles      int
	completedCount  int
	progressPercent float64
	threads         int
	workerFiles     map[int]string // Maps worker ID to the netlist it is processing
	rendered        bool
	finished        bool
	results         []fileRow
	resultsList     list.Model
	delegate        fileRowDelegate
	animOffset      int
	lastSelected    int
	summaryFiles    int
	summaryFailed   int
	summaryCounts   m.PointCounts
	haveSummary     bool
}

func newRunModel() runModel {
	prog := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	delegate := fileRowDelegate{}
	resultsList := list.New([]list.Item{}, delegate, 80, 20)
	resultsList.SetShowPagination(false)
	resultsList.SetShowFilter(true)
	resultsList.SetShowHelp(false)
	resultsList.SetShowTitle(false)
	resultsList.SetShowStatusBar(false)
	resultsList.FilterInput.Placeholder = "Filter results…"

	return runModel{
		progressBar:  prog,
		resultsList:  resultsList,
		delegate:     delegate,
		workerFiles:  make(map[int]string),
		lastSelected: -1,
	}
}

func (m runModel) Init() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m = m.handleWindowSize(msg)

	case tea.KeyMsg:
		m, cmd = m.handleKeyMsg(msg)

	case tickMsg:
		return m.handleTickMsg(msg)

	case tea.MouseMsg:
		if m.finished {
			m.resultsList, cmd = m.resultsList.Update(msg)
		}

	case startFileMsg:
		m = m.handleStartFile(msg)

	case completedFileMsg:
		m = m.handleCompletedFile(msg)

	case concurrencyMsg:
		m.threads = msg.threads

	case upcomingMsg:
		m.totalFiles = msg.count
		m.completedCount = 0
		m.progressPercent = 0

	case summaryMsg:
		m = m.handleSummary(msg)

	case pointsMsg:
		// Shouldn't happen during an instrumentation run, but handle gracefully
	}

	return m, cmd
}

func (m runModel) View() string {
	if !m.rendered {
		return "Initializing instrumentation…\n"
	}

	if m.finished {
		return m.viewResults()
	}

	return m.viewProgress()
}

func (m runModel) viewProgress() string {
	accentColor := lipgloss.Color("6") // Cyan

	// Styles
	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("205")).
		Bold(true).
		Padding(1, 0, 0, 2)

	summaryStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252")).
		Padding(0, 0, 1, 2)

	accentStyle := lipgloss.NewStyle().Foreground(accentColor)

	// 1. Title
	title := titleStyle.Render("🧪 hdlcov Instrumentation")

	// 2. Summary with metadata
	summary := summaryStyle.Render(fmt.Sprintf(
		"Progress: %s / %s  •  Workers: %s",
		accentStyle.Render(fmt.Sprintf("%d", m.completedCount)),
		accentStyle.Render(fmt.Sprintf("%d", m.totalFiles)),
		accentStyle.Render(fmt.Sprintf("%d", m.threads)),
	))

	// 3. Progress Bar
	progressStyle := lipgloss.NewStyle().
		Padding(0, 2)

	progressView := progressStyle.Render(m.progressBar.ViewAs(m.progressPercent))

	// 4. Worker Progress Section
	workersBox := m.renderWorkerBox(accentColor)

	// 5. Footer
	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Align(lipgloss.Center).
		Width(m.width)

	footer := footerStyle.Render("Press q to quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		summary,
		progressView,
		workersBox,
		footer,
	)
}

func (m runModel) renderWorkerBox(accentColor lipgloss.Color) string {
	contentStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 1).
		Margin(1, 1, 1, 0).
		Width(m.width - 4)

	fileStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("14"))

	workerLines := make([]string, 0, m.threads)
	// Width - Border(2) - Padding(2)
	availableWidth := m.width - 4 - 2 - 2
	prefixWidth := 0
	workerLabelFormat := ""

	if m.threads > 1 {
		// Calculate width needed for the worker number
		digits := len(fmt.Sprintf("%d", m.threads-1))
		prefixWidth = 7 + digits + 2 // "Worker " + digits + ": "
		workerLabelFormat = fmt.Sprintf("Worker %%%dd: %%s", digits)
	}

	for i := 0; i < m.threads; i++ {
		file := m.workerFiles[i]

		var lineContent string

		if file == "" {
			lineContent = "idle"
		} else {
			remainingForFile := availableWidth - prefixWidth
			if remainingForFile < 10 {
				remainingForFile = 10
			}

			lineContent = fileStyle.Render(truncateToWidth(file, remainingForFile))
		}

		var workerLine string
		if m.threads > 1 {
			workerLine = fmt.Sprintf(workerLabelFormat, i, lineContent)
		} else {
			workerLine = lineContent
		}

		workerLines = append(workerLines, workerLine)
	}

	// Join lines and put in one box
	workersContent := lipgloss.JoinVertical(lipgloss.Left, workerLines...)

	return contentStyle.Render(workersContent)
}

func (m runModel) viewResults() string {
	accentColor := lipgloss.Color("6") // Cyan

	// Styles
	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("205")).
		Bold(true).
		Padding(1, 0, 0, 2)

	summaryStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252")).
		Padding(0, 0, 1, 2)

	accentStyle := lipgloss.NewStyle().Foreground(accentColor)

	// 1. Title
	title := titleStyle.Render("🧪 hdlcov Results")

	// 2. Summary
	summary := summaryStyle.Render(fmt.Sprintf(
		"Files: %s  •  Points: %s  •  Failed: %s",
		accentStyle.Render(fmt.Sprintf("%d", m.summaryFileCount())),
		accentStyle.Render(fmt.Sprintf("%d", m.summaryPointTotal())),
		accentStyle.Render(fmt.Sprintf("%d", m.summaryFailedCount())),
	))

	// 3. Results table with list
	resultsBox := m.renderResultsBox(accentColor)

	// 4. Footer
	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Align(lipgloss.Center).
		Width(m.width)

	footer := footerStyle.Render("↑/k up • ↓/j down • g/G top/bottom • / filter • q quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		summary,
		resultsBox,
		footer,
	)
}

func (m runModel) renderResultsBox(accentColor lipgloss.Color) string {
	listWidth := m.width - 4

	listHeight := m.height - 9
	if listHeight < 5 {
		listHeight = 5
	}

	m.resultsList.SetHeight(listHeight)
	m.resultsList.SetWidth(listWidth)

	// Column Headers
	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Bold(true).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("8")).
		Width(listWidth)

	headers := headerStyle.Render(fmt.Sprintf("%-8s  %8s  %s", "Status", "Points", "File"))

	resultsStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Margin(0, 1, 0, 0).
		Padding(0, 1)

	return resultsStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			headers,
			m.resultsList.View(),
		),
	)
}

// Aggregate totals come from the summary message when present; until it
// arrives they are derived from the rows collected so far.
func (m runModel) summaryFileCount() int {
	if m.haveSummary {
		return m.summaryFiles
	}

	return len(m.results)
}

func (m runModel) summaryFailedCount() int {
	if m.haveSummary {
		return m.summaryFailed
	}

	count := 0

	for _, row := range m.results {
		if row.status == "failed" {
			count++
		}
	}

	return count
}

func (m runModel) summaryPointTotal() int {
	if m.haveSummary {
		return m.summaryCounts.Total()
	}

	total := 0

	for _, row := range m.results {
		total += row.points
	}

	return total
}

func (m runModel) handleStartFile(msg startFileMsg) runModel {
	// Track which netlist this worker is processing
	m.workerFiles[msg.worker] = msg.origin
	m.rendered = true

	return m
}

func (m runModel) handleCompletedFile(msg completedFileMsg) runModel {
	m.completedCount++
	// View-only replays deliver completions without starts
	m.rendered = true

	row := fileRow{
		file:    msg.origin,
		status:  msg.status,
		points:  msg.points,
		failure: msg.failure,
	}
	m.results = append(m.results, row)

	// Update results list with new items
	items := make([]list.Item, 0, len(m.results))

	for _, r := range m.results {
		items = append(items, r)
	}

	m.resultsList.SetItems(items)

	if m.totalFiles > 0 {
		m.progressPercent = float64(m.completedCount) / float64(m.totalFiles)
		// Flip to the results view when all are complete
		if m.completedCount == m.totalFiles {
			m.finished = true
		}
	}

	return m
}

func (m runModel) handleSummary(msg summaryMsg) runModel {
	m.summaryFiles = msg.files
	m.summaryFailed = msg.failed
	m.summaryCounts = msg.counts
	m.haveSummary = true
	m.rendered = true
	m.finished = true

	return m
}

func (m runModel) handleKeyMsg(msg tea.KeyMsg) (runModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	default:
		if m.finished {
			var newList list.Model

			newList, cmd = m.resultsList.Update(msg)
			m.resultsList = newList

			// Detect selection change to reset animation
			if m.resultsList.Index() != m.lastSelected {
				m.lastSelected = m.resultsList.Index()
				m.animOffset = 0
				m.delegate.offset = 0
				m.resultsList.SetDelegate(m.delegate)
			}

			return m, cmd
		}
	}

	return m, nil
}

func (m runModel) handleWindowSize(msg tea.WindowSizeMsg) runModel {
	m.width = msg.Width
	m.height = msg.Height

	m.progressBar.Width = m.width - 8
	if m.progressBar.Width < 20 {
		m.progressBar.Width = 20
	}

	return m
}

func (m runModel) handleTickMsg(_ tickMsg) (runModel, tea.Cmd) {
	// Keep the UI responsive
	if m.finished && m.resultsList.FilterState() != list.Filtering {
		m.animOffset++
		m.delegate.offset = m.animOffset
		m.resultsList.SetDelegate(m.delegate)
	}

	return m, tea.Tick(time.Millisecond*150, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
