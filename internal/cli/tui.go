package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/flowscope/pkg/config"
	"github.com/matzehuels/flowscope/pkg/render/attrs"
	"github.com/matzehuels/flowscope/pkg/render/scene"
	"github.com/matzehuels/flowscope/pkg/session"
)

// Player layout.
const (
	tableWidth    = 52
	minCanvasW    = 20
	minCanvasH    = 8
	chromeHeight  = 6 // title, status, help and spacing
	defaultWidth  = 100
	defaultHeight = 30
)

var (
	playerBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim)
	playerHelpStyle = lipgloss.NewStyle().Foreground(colorGray)
	playerErrStyle  = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
)

// =============================================================================
// Key Bindings
// =============================================================================

type playerKeys struct {
	Next     key.Binding
	Previous key.Binding
	First    key.Binding
	Last     key.Binding
	Pause    key.Binding
	Reheat   key.Binding
	Select   key.Binding
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Release  key.Binding
	Labels   key.Binding
	Heights  key.Binding
	Drag     key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var defaultPlayerKeys = playerKeys{
	Next:     key.NewBinding(key.WithKeys("right", "l", "n"), key.WithHelp("→/l", "next frame")),
	Previous: key.NewBinding(key.WithKeys("left", "h", "p"), key.WithHelp("←/h", "prev frame")),
	First:    key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "first")),
	Last:     key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "last")),
	Pause:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause physics")),
	Reheat:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reheat")),
	Select:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "select node")),
	Up:       key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "drag up")),
	Down:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "drag down")),
	Left:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "drag left")),
	Right:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "drag right")),
	Release:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "release node")),
	Labels:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edge labels")),
	Heights:  key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "heights")),
	Drag:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "physics drag")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
	Quit:     key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k playerKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Previous, k.Next, k.Pause, k.Select, k.Help, k.Quit}
}

func (k playerKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Previous, k.Next, k.First, k.Last},
		{k.Pause, k.Reheat, k.Select, k.Release},
		{k.Up, k.Down, k.Left, k.Right},
		{k.Labels, k.Heights, k.Drag, k.Quit},
	}
}

// =============================================================================
// Player Model
// =============================================================================

type physicsTickMsg time.Time

// playerModel is the bubbletea model of `flowscope play`. It owns no
// simulation state; every change goes through the session.
type playerModel struct {
	sess   *session.Session
	keys   playerKeys
	help   help.Model
	edges  table.Model
	nodes  []string
	sel    int
	paused bool

	// drag is the node being moved with the keyboard and dragX, dragY
	// where it is headed.
	drag         string
	dragX, dragY float64
	period       time.Duration

	scene *scene.Scene
	err   error

	width, height int
}

func newPlayerModel(sess *session.Session, nodeIDs []string) playerModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Edge", Width: 6},
			{Title: "Arc", Width: 12},
			{Title: "Flow", Width: 10},
			{Title: "Residual", Width: 8},
			{Title: "State", Width: 10},
		}),
		table.WithHeight(defaultHeight-chromeHeight-3),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorDim).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.Foreground(colorWhite).Background(lipgloss.Color("24")).Bold(false)
	t.SetStyles(s)

	m := playerModel{
		sess:   sess,
		keys:   defaultPlayerKeys,
		help:   help.New(),
		edges:  t,
		nodes:  nodeIDs,
		period: tickPeriod(sess.Config().Simulation.TickRate),
		width:  defaultWidth,
		height: defaultHeight,
	}
	m.refresh()
	return m
}

func tickPeriod(rate float64) time.Duration {
	if rate <= 0 {
		return time.Second / 60
	}
	return time.Duration(float64(time.Second) / rate)
}

func (m playerModel) physicsTick() tea.Cmd {
	return tea.Tick(m.period, func(t time.Time) tea.Msg { return physicsTickMsg(t) })
}

func (m playerModel) Init() tea.Cmd {
	return m.physicsTick()
}

func (m playerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.edges.SetHeight(max(m.height-chromeHeight-3, 3))
		return m, nil

	case physicsTickMsg:
		if !m.paused && m.sess.Running() {
			m.sess.Tick()
			m.refresh()
		}
		return m, m.physicsTick()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m playerModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.err = m.endDrag()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Next):
		m.sess.Next()
	case key.Matches(msg, m.keys.Previous):
		m.sess.Previous()
	case key.Matches(msg, m.keys.First):
		m.sess.First()
	case key.Matches(msg, m.keys.Last):
		m.sess.Last()
	case key.Matches(msg, m.keys.Pause):
		m.paused = !m.paused
	case key.Matches(msg, m.keys.Reheat):
		m.sess.Reheat()
	case key.Matches(msg, m.keys.Select):
		m.err = m.endDrag()
		if len(m.nodes) > 0 {
			m.sel = (m.sel + 1) % len(m.nodes)
		}
	case key.Matches(msg, m.keys.Up):
		m.err = m.nudge(0, -1)
	case key.Matches(msg, m.keys.Down):
		m.err = m.nudge(0, 1)
	case key.Matches(msg, m.keys.Left):
		m.err = m.nudge(-1, 0)
	case key.Matches(msg, m.keys.Right):
		m.err = m.nudge(1, 0)
	case key.Matches(msg, m.keys.Release):
		if id := m.selected(); id != "" {
			if m.err = m.endDrag(); m.err == nil {
				m.err = m.sess.Release(id)
			}
		}
	case key.Matches(msg, m.keys.Labels):
		m.err = m.sess.UpdateConfig(func(c *config.Config) { c.Display.EdgeLabels = !c.Display.EdgeLabels })
	case key.Matches(msg, m.keys.Heights):
		m.err = m.sess.UpdateConfig(func(c *config.Config) { c.Display.Heights = !c.Display.Heights })
	case key.Matches(msg, m.keys.Drag):
		m.err = m.sess.UpdateConfig(func(c *config.Config) { c.Display.PhysicsDrag = !c.Display.PhysicsDrag })
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	default:
		var cmd tea.Cmd
		m.edges, cmd = m.edges.Update(msg)
		return m, cmd
	}
	m.refresh()
	return m, nil
}

func (m playerModel) selected() string {
	if len(m.nodes) == 0 {
		return ""
	}
	return m.nodes[m.sel]
}

// nudge moves the drag target of the selected node one grid step (or half
// a link distance) in the given direction, starting a drag if none is
// active. The drag lasts until the selection changes or the node is
// released.
func (m *playerModel) nudge(dx, dy float64) error {
	id := m.selected()
	if id == "" || m.scene == nil {
		return nil
	}
	if m.drag != id {
		if err := m.endDrag(); err != nil {
			return err
		}
		n, ok := m.scene.Node(id)
		if !ok {
			return nil
		}
		if err := m.sess.DragStart(id); err != nil {
			return err
		}
		m.drag, m.dragX, m.dragY = id, n.Pos.X, n.Pos.Y
	}
	cfg := m.sess.Config()
	step := cfg.Display.GridSize
	if step <= 0 {
		step = cfg.Forces.Link.Distance / 2
	}
	m.dragX += dx * step
	m.dragY += dy * step
	return m.sess.DragMove(id, m.dragX, m.dragY)
}

// endDrag finishes the keyboard drag, if any.
func (m *playerModel) endDrag() error {
	if m.drag == "" {
		return nil
	}
	id := m.drag
	m.drag = ""
	return m.sess.DragEnd(id)
}

// refresh rebuilds the scene and the edge table from the session.
func (m *playerModel) refresh() {
	sc, err := m.sess.Scene()
	if err != nil {
		m.err = err
		return
	}
	m.scene = sc
	rows := make([]table.Row, len(sc.Edges))
	for i, e := range sc.Edges {
		rows[i] = table.Row{
			e.ID,
			e.Source + " → " + e.Target,
			attrs.FormatNumber(e.Flow) + "/" + attrs.FormatNumber(e.Capacity),
			attrs.FormatNumber(e.RemainingCapacity),
			edgeState(e),
		}
	}
	m.edges.SetRows(rows)
}

// edgeState names the category of an edge plus its admissible directions.
func edgeState(e scene.EdgeView) string {
	s := string(e.Attrs.Category)
	switch {
	case e.Admissible && e.ReverseAdmissible:
		s += " ⇄"
	case e.Admissible:
		s += " →"
	case e.ReverseAdmissible:
		s += " ←"
	}
	return s
}

func (m playerModel) View() string {
	if m.scene == nil {
		if m.err != nil {
			return playerErrStyle.Render(m.err.Error()) + "\n"
		}
		return "Loading...\n"
	}
	sc := m.scene
	var b strings.Builder

	title := fmt.Sprintf("Frame %d/%d", sc.Frame+1, sc.FrameCount)
	b.WriteString(StyleTitle.Render(title) + "  " + kindBadge(sc.Kind) + " " + StyleValue.Render(sc.Label))
	b.WriteString("\n")

	cw := max(m.width-tableWidth-4, minCanvasW)
	ch := max(m.height-chromeHeight, minCanvasH)
	canvasView := playerBoxStyle.Render(drawScene(sc, cw, ch, m.selected()).String())
	tableView := playerBoxStyle.Render(m.edges.View())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, canvasView, tableView))
	b.WriteString("\n")

	b.WriteString(m.status())
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(playerErrStyle.Render(iconError+" "+m.err.Error()) + "\n")
	}
	b.WriteString(playerHelpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m playerModel) status() string {
	st := m.sess.Status()
	physics := "running"
	switch {
	case m.paused:
		physics = "paused"
	case !st.Running:
		physics = "settled"
	}
	parts := []string{
		fmt.Sprintf("alpha %.3f", st.Alpha),
		physics,
	}
	switch {
	case st.AtStart && st.AtEnd:
	case st.AtStart:
		parts = append(parts, "first frame")
	case st.AtEnd:
		parts = append(parts, "last frame")
	}
	if id := m.selected(); id != "" {
		node := "node " + StyleHighlight.Render(id)
		if m.drag == id {
			node += " (dragging)"
		}
		parts = append(parts, node)
	}
	if len(m.scene.Path) > 0 {
		parts = append(parts, "path "+strings.Join(m.scene.Path, " "))
	}
	return StyleDim.Render(strings.Join(parts, " · "))
}
