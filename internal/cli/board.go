package cli

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/goal-board/internal/core"
	"github.com/valter-silva-au/goal-board/pkg/models"
)

const (
	toastDuration    = 3 * time.Second
	progressBarWidth = 30
	boardBuffer      = 16
)

// boardTopics are the events that change the screen without a key press.
var boardTopics = []core.Topic{
	core.TopicCelebrationFired,
	core.TopicQuoteRefreshed,
	core.TopicProjectReplaced,
	core.TopicProjectSelected,
	core.TopicTaskReordered,
}

type boardModel struct {
	store  core.TaskStore
	quotes *core.QuoteRotator
	sub    *core.Subscription
	keys   boardKeyMap

	cursor      int
	grabbed     int // index of the task being moved, -1 when none
	showDetails bool
	width       int
	height      int

	toast    string
	toastSeq int
}

// boardEventMsg carries a bus event into the update loop.
type boardEventMsg struct {
	event core.Event
}

// boardClosedMsg is sent when the subscription ends.
type boardClosedMsg struct{}

type toastExpiredMsg struct {
	seq int
}

var (
	boardTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	goalStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	barFilledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	barEmptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	doneStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Strikethrough(true)
	focusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true)
	grabbedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("141")).Bold(true)
	milestoneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	toastStyle     = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("16")).
			Background(lipgloss.Color("46")).
			Padding(0, 1)
	quoteStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("109")).Italic(true)
	detailsStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	boardHelpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newBoardModel(store core.TaskStore, quotes *core.QuoteRotator, sub *core.Subscription) boardModel {
	m := boardModel{
		store:   store,
		quotes:  quotes,
		sub:     sub,
		keys:    defaultBoardKeys,
		grabbed: -1,
	}
	m.cursor = m.focusIndex()
	return m
}

func (m boardModel) Init() tea.Cmd {
	return waitForEvent(m.sub)
}

// waitForEvent blocks on the next bus event. A nil subscription never
// produces messages.
func waitForEvent(sub *core.Subscription) tea.Cmd {
	if sub == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-sub.C
		if !ok {
			return boardClosedMsg{}
		}
		return boardEventMsg{event: e}
	}
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case boardEventMsg:
		next := waitForEvent(m.sub)
		switch msg.event.Topic {
		case core.TopicCelebrationFired:
			m.toastSeq++
			m.toast = msg.event.Message
			seq := m.toastSeq
			return m, tea.Batch(next, tea.Tick(toastDuration, func(time.Time) tea.Msg {
				return toastExpiredMsg{seq: seq}
			}))
		case core.TopicProjectReplaced, core.TopicProjectSelected, core.TopicTaskReordered:
			m.clampCursor()
		}
		return m, next

	case toastExpiredMsg:
		if msg.seq == m.toastSeq {
			m.toast = ""
		}
		return m, nil

	case boardClosedMsg:
		return m, nil
	}

	return m, nil
}

func (m boardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	tasks := m.store.Tasks()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(tasks)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Toggle):
		if m.grabbed < 0 && m.cursor < len(tasks) {
			m.store.ToggleCompletion(tasks[m.cursor].ID)
		}

	case key.Matches(msg, m.keys.Grab):
		if len(tasks) == 0 {
			break
		}
		if m.grabbed < 0 {
			m.grabbed = m.cursor
			break
		}
		if m.grabbed < len(tasks) && m.cursor < len(tasks) {
			m.store.Reorder(tasks[m.grabbed].ID, tasks[m.cursor].ID)
		}
		m.grabbed = -1

	case key.Matches(msg, m.keys.Cancel):
		if m.grabbed >= 0 {
			m.cursor = m.grabbed
			m.grabbed = -1
		}

	case key.Matches(msg, m.keys.Next):
		m.switchProject(1)

	case key.Matches(msg, m.keys.Prev):
		m.switchProject(-1)

	case key.Matches(msg, m.keys.Details):
		m.showDetails = !m.showDetails
	}

	return m, nil
}

func (m *boardModel) switchProject(step int) {
	keys := m.store.ProjectKeys()
	if len(keys) < 2 {
		return
	}
	i := slices.Index(keys, m.store.CurrentKey())
	next := keys[(i+step+len(keys))%len(keys)]
	if err := m.store.SelectProject(next); err != nil {
		return
	}
	m.grabbed = -1
	m.cursor = m.focusIndex()
}

func (m boardModel) focusIndex() int {
	focus, ok := m.store.FirstIncomplete()
	if !ok {
		return 0
	}
	return focus.ID - 1
}

func (m *boardModel) clampCursor() {
	n := len(m.store.Tasks())
	m.cursor = max(0, min(m.cursor, n-1))
	if m.grabbed >= n {
		m.grabbed = -1
	}
}

func (m boardModel) View() string {
	p := m.store.CurrentProject()
	completed, total := core.CountCompleted(p.Tasks)
	percent := core.Percent(completed, total)

	var b strings.Builder
	b.WriteString(boardTitleStyle.Render(" " + p.Name + " "))
	b.WriteString("\n")
	if p.Goal != "" {
		b.WriteString(goalStyle.Render(p.Goal))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(renderProgress(percent, progressBarWidth))
	fmt.Fprintf(&b, " %.0f%% (%d/%d)\n\n", percent, completed, total)

	if len(p.Tasks) == 0 {
		b.WriteString("  No tasks.\n")
	}
	focus, hasFocus := core.FirstIncomplete(p.Tasks)
	for i, t := range p.Tasks {
		b.WriteString(m.renderTaskLine(i, t, hasFocus && focus.Key == t.Key))
		b.WriteString("\n")
	}

	if m.showDetails && m.cursor < len(p.Tasks) {
		var d strings.Builder
		printTaskDetail(&d, p.Tasks[m.cursor])
		b.WriteString("\n")
		b.WriteString(detailsStyle.Render(strings.TrimRight(d.String(), "\n")))
		b.WriteString("\n")
	}

	if m.toast != "" {
		b.WriteString("\n")
		b.WriteString(toastStyle.Render(m.toast))
		b.WriteString("\n")
	}

	if m.quotes != nil {
		b.WriteString("\n")
		b.WriteString(quoteStyle.Render("“" + m.quotes.Current() + "”"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m boardModel) renderTaskLine(i int, t models.Task, focus bool) string {
	cursor := "  "
	if i == m.cursor {
		cursor = "> "
	}
	check := "[ ]"
	if t.Completed {
		check = "[x]"
	}
	star := " "
	if t.IsMilestone() {
		star = milestoneStyle.Render("★")
	}
	label := fmt.Sprintf("%2d. %s", t.ID, t.Title)
	if t.Phase != "" {
		label += "  (" + t.Phase + ")"
	}

	switch {
	case i == m.grabbed:
		label = grabbedStyle.Render("≡ " + label)
	case t.Completed:
		label = doneStyle.Render(label)
	case focus:
		label = focusStyle.Render(label)
	}
	return cursor + check + " " + star + " " + label
}

func (m boardModel) renderHelp() string {
	if m.grabbed >= 0 {
		return boardHelpStyle.Render("moving: j/k pick a spot | m: drop | esc: cancel")
	}
	parts := make([]string, 0, len(m.keys.shortHelp()))
	for _, k := range m.keys.shortHelp() {
		h := k.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return boardHelpStyle.Render(strings.Join(parts, " | "))
}

func renderProgress(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	filled = max(0, min(width, filled))
	return barFilledStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", width-filled))
}

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Interactive TUI board for the active project",
	Long: `Launch an interactive terminal board for the active project.

Move with j/k, tick tasks off with space, pick a task up with m and drop
it in front of the task under the cursor with m again. Tab switches projects, d shows
task details, q quits. Completing a task shows a celebration.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireStore(); err != nil {
			return err
		}

		// The update loop publishes through the store, so it must never
		// wait on its own buffer. View re-reads the store, so a dropped
		// event costs at most a toast.
		var sub *core.Subscription
		if Bus != nil {
			sub = Bus.SubscribeDropping(boardBuffer, boardTopics...)
			defer sub.Unsubscribe()
		}

		// Celebrations render as toasts while the board owns the terminal.
		restore := muteTerminalNotifications()
		defer restore()

		p := tea.NewProgram(newBoardModel(Store, Quotes, sub), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(boardCmd)
}
