package cli

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/flowcanvas/flowcanvas/pkg/cache"
	"github.com/flowcanvas/flowcanvas/pkg/editor"
	"github.com/flowcanvas/flowcanvas/pkg/geometry"
	"github.com/flowcanvas/flowcanvas/pkg/graph"
	"github.com/flowcanvas/flowcanvas/pkg/interaction"
	"github.com/flowcanvas/flowcanvas/pkg/scene"
)

// Terminal cells are taller than they are wide; world units per cell keep
// the drawn aspect roughly square.
const (
	cellWidth  = 10.0
	cellHeight = 20.0

	doubleClickWindow = 400 * time.Millisecond
)

// openLayoutCache keeps layout results across CLI runs. Cache failures only
// cost recomputation, so a broken cache dir degrades to no caching.
func openLayoutCache(logger *log.Logger) cache.Cache {
	home, err := os.UserHomeDir()
	if err != nil {
		return cache.NewNullCache()
	}
	c, err := cache.NewFileCache(filepath.Join(home, ".config", "flowcanvas", "layout-cache"))
	if err != nil {
		logger.Warn("layout cache unavailable", "err", err)
		return cache.NewNullCache()
	}
	return c
}

func newEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit [state-file]",
		Short: "Open the interactive pipeline canvas",
		Long: `Edit opens a terminal canvas for a pipeline graph.

Drag node bodies to move them, drag from an output port to an input port to
wire an edge, drag empty canvas to pan, and scroll to zoom. Press ? in the
canvas for the full key map. With a state file argument the canvas loads it
on start and writes back on save.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFromContext(cmd.Context())
			logger := loggerFromContext(cmd.Context())

			ed, err := editor.New(editor.Options{
				Config:    cfg,
				NodeTypes: defaultNodeTypes(),
				Engine:    cfg.LayoutEngine(),
				Cache:     openLayoutCache(logger),
				Logger:    logger,
			})
			if err != nil {
				return err
			}

			var file string
			if len(args) == 1 {
				file = args[0]
				st, err := graph.ReadStateFile(file)
				if err != nil {
					return err
				}
				ed.SetState(st)
			}

			m := newEditModel(cmd.Context(), ed, file)
			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())
			final, err := p.Run()
			if err != nil {
				return err
			}
			if em, ok := final.(editModel); ok && em.err != nil {
				return em.err
			}
			return nil
		},
	}
	return cmd
}

// editModel is the bubbletea model wrapping one editor instance.
type editModel struct {
	ctx  context.Context
	ed   *editor.Editor
	sc   scene.Scene
	file string

	width  int
	height int

	typeIdx   int
	status    string
	showHelp  bool
	err       error
	lastClick time.Time
	lastCell  [2]int
}

func newEditModel(ctx context.Context, ed *editor.Editor, file string) editModel {
	return editModel{
		ctx:    ctx,
		ed:     ed,
		sc:     ed.Scene(),
		file:   file,
		status: "ready",
	}
}

func (m editModel) Init() tea.Cmd { return nil }

func (m editModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.MouseMsg:
		m = m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	m = m.refresh()
	return m, nil
}

// refresh drains the controller's pending frame into the cached scene.
func (m editModel) refresh() editModel {
	frame, ok := m.ed.Controller().NextFrame()
	if !ok {
		return m
	}
	if frame.Full {
		m.sc = m.ed.Scene()
		return m
	}
	for _, p := range frame.Patches {
		scene.PatchNode(&m.sc, m.ed.Store(), m.ed.NodeTypes(), m.ed.Metrics(), p.NodeID)
	}
	return m
}

func (m editModel) handleMouse(msg tea.MouseMsg) editModel {
	p := geometry.Point{X: float64(msg.X) * cellWidth, Y: float64(msg.Y) * cellHeight}
	ctrl := m.ed.Controller()

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		ctrl.Wheel(p, 1)
		return m
	case tea.MouseButtonWheelDown:
		ctrl.Wheel(p, -1)
		return m
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m
		}
		cell := [2]int{msg.X, msg.Y}
		if time.Since(m.lastClick) < doubleClickWindow && cell == m.lastCell {
			ctrl.DoubleClick(p)
		} else {
			ctrl.PointerDown(p, interaction.Modifiers{Additive: msg.Shift})
		}
		m.lastClick = time.Now()
		m.lastCell = cell
	case tea.MouseActionMotion:
		ctrl.PointerMove(p)
	case tea.MouseActionRelease:
		ctrl.PointerUp(p)
	}
	return m
}

func (m editModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp

	case "tab":
		m.typeIdx = (m.typeIdx + 1) % len(nodeTypeCycle)
		m.status = "insert type: " + nodeTypeCycle[m.typeIdx]

	case "n":
		typ := nodeTypeCycle[m.typeIdx]
		n := m.ed.AddNode(graph.NodeSpec{Type: typ, Label: typ})
		m.status = fmt.Sprintf("added %s node %s", typ, shortID(n.ID))

	case "d", "delete", "backspace":
		m.ed.Controller().DeleteSelected()
		m.status = "deleted selection"

	case "L":
		if err := m.ed.AutoLayout(m.ctx); err != nil {
			m.status = "layout failed: " + err.Error()
		} else {
			m.status = "layout applied"
		}

	case "f":
		m.ed.FitView()
		m.status = "view fitted"

	case "s":
		if m.file == "" {
			m.status = "no state file; start with one to save"
			break
		}
		if err := graph.WriteStateFile(m.ed.GetState(), m.file); err != nil {
			m.status = "save failed: " + err.Error()
		} else {
			m.status = "saved " + m.file
		}
	}
	m = m.refresh()
	return m, nil
}

// =============================================================================
// Rendering
// =============================================================================

type cell struct {
	ch    rune
	style lipgloss.Style
}

func (m editModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "loading..."
	}
	if m.showHelp {
		return m.helpView()
	}

	canvasH := m.height - 2
	grid := make([][]cell, canvasH)
	for y := range grid {
		grid[y] = make([]cell, m.width)
		for x := range grid[y] {
			grid[y][x] = cell{ch: ' '}
		}
	}

	v := m.ed.Store().Viewport()
	toCell := func(p geometry.Point) (int, int) {
		s := geometry.WorldToScreen(v, p)
		return int(math.Round(s.X / cellWidth)), int(math.Round(s.Y / cellHeight))
	}

	for _, e := range m.sc.Edges {
		m.plotCurve(grid, e.Curve, edgeStyle(e.Selected), toCell)
	}
	if curve, ok := m.ed.Controller().Preview(); ok {
		m.plotCurve(grid, curve, stylePreview, toCell)
	}
	for i := range m.sc.Nodes {
		m.plotNode(grid, &m.sc.Nodes[i], toCell)
	}

	var b strings.Builder
	for _, row := range grid {
		for _, c := range row {
			b.WriteString(c.style.Render(string(c.ch)))
		}
		b.WriteByte('\n')
	}
	b.WriteString(m.statusBar())
	return b.String()
}

func edgeStyle(selected bool) lipgloss.Style {
	if selected {
		return styleEdgeSelected
	}
	return styleEdge
}

func (m editModel) plotCurve(grid [][]cell, curve geometry.Curve, style lipgloss.Style, toCell func(geometry.Point) (int, int)) {
	const samples = 64
	for i := 0; i <= samples; i++ {
		x, y := toCell(curve.At(float64(i) / samples))
		put(grid, x, y, '·', style)
	}
}

func (m editModel) plotNode(grid [][]cell, n *scene.NodeSprite, toCell func(geometry.Point) (int, int)) {
	x0, y0 := toCell(geometry.Point{X: n.Frame.X, Y: n.Frame.Y})
	x1, y1 := toCell(geometry.Point{X: n.Frame.X + n.Frame.W, Y: n.Frame.Y + n.Frame.H})
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}

	style := styleNode
	if n.Selected {
		style = styleNodeSelected
	}

	for x := x0; x <= x1; x++ {
		put(grid, x, y0, '─', style)
		put(grid, x, y1, '─', style)
	}
	for y := y0; y <= y1; y++ {
		put(grid, x0, y, '│', style)
		put(grid, x1, y, '│', style)
	}
	put(grid, x0, y0, '┌', style)
	put(grid, x1, y0, '┐', style)
	put(grid, x0, y1, '└', style)
	put(grid, x1, y1, '┘', style)

	putText(grid, x0+1, y0+1, x1-1, n.Label, style)
	if n.Subtitle != "" && y0+2 < y1 {
		putText(grid, x0+1, y0+2, x1-1, n.Subtitle, styleSubtitle)
	}

	for _, port := range n.In {
		x, y := toCell(port.Pos)
		put(grid, x, y, '◦', stylePort)
	}
	for _, port := range n.Out {
		x, y := toCell(port.Pos)
		put(grid, x, y, '●', stylePort)
	}
}

func put(grid [][]cell, x, y int, ch rune, style lipgloss.Style) {
	if y < 0 || y >= len(grid) || x < 0 || x >= len(grid[y]) {
		return
	}
	grid[y][x] = cell{ch: ch, style: style}
}

func putText(grid [][]cell, x0, y, x1 int, text string, style lipgloss.Style) {
	for i, ch := range text {
		x := x0 + i
		if x > x1 {
			break
		}
		put(grid, x, y, ch, style)
	}
}

func (m editModel) statusBar() string {
	v := m.ed.Store().Viewport()
	left := fmt.Sprintf(" %s  nodes:%d edges:%d zoom:%.2f",
		m.status, m.ed.Store().NodeCount(), m.ed.Store().EdgeCount(), v.Zoom)
	right := StyleDim.Render("n:add tab:type d:delete L:layout f:fit s:save ?:help q:quit ")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return styleStatus.Render(left) + strings.Repeat(" ", gap) + right
}

func (m editModel) helpView() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render("FlowCanvas Keys"))
	b.WriteString("\n\n")
	for _, row := range [][2]string{
		{"mouse drag on node", "move node"},
		{"mouse drag from ● port", "wire an edge to a ◦ port"},
		{"mouse drag on canvas", "pan"},
		{"scroll", "zoom at pointer"},
		{"shift+click", "additive selection"},
		{"double-click node", "open node details hook"},
		{"n", "insert node of the current type"},
		{"tab", "cycle insert type"},
		{"d / delete", "delete selection"},
		{"L", "automatic layout"},
		{"f", "fit view"},
		{"s", "save state file"},
		{"?", "toggle this help"},
		{"q", "quit"},
	} {
		b.WriteString(fmt.Sprintf("  %-26s %s\n", row[0], StyleDim.Render(row[1])))
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
