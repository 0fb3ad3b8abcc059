package tui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/romartin/kie-wb-common-sub000/pkg/graph"
)

type cellClass uint8

const (
	classBlank cellClass = iota
	classEdge
	classNode
	classSelected
	classGhost
)

// Styles
var (
	cellStyles = map[cellClass]lipgloss.Style{
		classBlank:    lipgloss.NewStyle(),
		classEdge:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		classNode:     lipgloss.NewStyle().Foreground(lipgloss.Color("63")),
		classSelected: lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
		classGhost:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	}

	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

type boxChars struct {
	h, v, tl, tr, bl, br rune
}

var (
	singleBox = boxChars{'─', '│', '┌', '┐', '└', '┘'}
	doubleBox = boxChars{'═', '║', '╔', '╗', '╚', '╝'}
	ghostBox  = boxChars{'┄', '┆', '┌', '┐', '└', '┘'}
)

// grid is a fixed-size character canvas.
type grid struct {
	w, h  int
	runes [][]rune
	class [][]cellClass
}

func newGrid(w, h int) *grid {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	g := &grid{w: w, h: h, runes: make([][]rune, h), class: make([][]cellClass, h)}
	for y := range g.runes {
		g.runes[y] = []rune(strings.Repeat(" ", w))
		g.class[y] = make([]cellClass, w)
	}
	return g
}

func (g *grid) set(x, y int, r rune, c cellClass) {
	if x < 0 || y < 0 || x >= g.w || y >= g.h {
		return
	}
	g.runes[y][x] = r
	g.class[y][x] = c
}

func (g *grid) text(x, y, limit int, s string, c cellClass) {
	for i, r := range []rune(s) {
		if i >= limit {
			return
		}
		g.set(x+i, y, r, c)
	}
}

func (g *grid) hline(x0, x1, y int, c cellClass) {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	for x := x0; x <= x1; x++ {
		g.set(x, y, '─', c)
	}
}

func (g *grid) vline(x, y0, y1 int, c cellClass) {
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		g.set(x, y, '│', c)
	}
}

// box draws b with the label on its first inner row. Boxes too small for a
// border get the label only; an empty label leaves the inside untouched.
func (g *grid) box(b graph.Bounds, label string, chars boxChars, c cellClass) {
	if b.W < 2 || b.H < 2 {
		g.text(b.X, b.Y, max(b.W, 1), label, c)
		return
	}
	x1, y1 := b.X+b.W-1, b.Y+b.H-1
	for x := b.X + 1; x < x1; x++ {
		g.set(x, b.Y, chars.h, c)
		g.set(x, y1, chars.h, c)
	}
	for y := b.Y + 1; y < y1; y++ {
		g.set(b.X, y, chars.v, c)
		g.set(x1, y, chars.v, c)
		if label == "" {
			continue
		}
		for x := b.X + 1; x < x1; x++ {
			g.set(x, y, ' ', c)
		}
	}
	g.set(b.X, b.Y, chars.tl, c)
	g.set(x1, b.Y, chars.tr, c)
	g.set(b.X, y1, chars.bl, c)
	g.set(x1, y1, chars.br, c)
	if b.H > 2 {
		g.text(b.X+1, b.Y+1, b.W-2, label, c)
	}
}

// String returns the grid without styling.
func (g *grid) String() string {
	lines := make([]string, g.h)
	for y := range g.runes {
		lines[y] = string(g.runes[y])
	}
	return strings.Join(lines, "\n")
}

// Render returns the grid with runs of equal cell class styled together.
func (g *grid) Render() string {
	lines := make([]string, g.h)
	for y := range g.runes {
		var b strings.Builder
		start := 0
		for x := 1; x <= g.w; x++ {
			if x < g.w && g.class[y][x] == g.class[y][start] {
				continue
			}
			b.WriteString(cellStyles[g.class[y][start]].Render(string(g.runes[y][start:x])))
			start = x
		}
		lines[y] = b.String()
	}
	return strings.Join(lines, "\n")
}

// magnetPoint returns the anchor of magnet on b: 0 top, 1 right, 2 bottom,
// 3 left. Any other value anchors at the center.
func magnetPoint(b graph.Bounds, magnet int) (int, int) {
	cx, cy := b.Center()
	switch magnet {
	case 0:
		return cx, b.Y
	case 1:
		return b.X + b.W - 1, cy
	case 2:
		return cx, b.Y + b.H - 1
	case 3:
		return b.X, cy
	default:
		return cx, cy
	}
}

// magnetAt returns the magnet of the side of b nearest to the point.
func magnetAt(b graph.Bounds, x, y int) int {
	dist := []int{
		y - b.Y,
		b.X + b.W - 1 - x,
		b.Y + b.H - 1 - y,
		x - b.X,
	}
	best := 0
	for m, d := range dist {
		if d < dist[best] {
			best = m
		}
	}
	return best
}

// corner joins a horizontal run into a vertical one.
func corner(right, down bool) rune {
	switch {
	case right && down:
		return '┐'
	case right:
		return '┘'
	case down:
		return '┌'
	default:
		return '└'
	}
}

func nodeLabel(n *graph.Node) string {
	if n.Label != "" {
		return n.Label
	}
	return string(n.Type)
}

// drawDiagram paints connectors first and nodes over them, outer nodes
// before inner ones. A connector without a target ends at the ghost.
func drawDiagram(g *grid, d *graph.Diagram, selected string, gh *ghost) {
	gr := d.Graph
	for _, id := range gr.EdgeIDs() {
		e := gr.Edges[id]
		src, ok := gr.Node(e.SourceID)
		if !ok {
			continue
		}
		sx, sy := magnetPoint(src.Bounds, e.SourceMagnet)
		var tx, ty int
		if dst, ok := gr.Node(e.TargetID); ok {
			tx, ty = magnetPoint(dst.Bounds, e.TargetMagnet)
		} else if gh != nil && gh.visible {
			tx, ty = gh.x, gh.y
		} else {
			continue
		}
		c := classEdge
		if id == selected {
			c = classSelected
		}
		g.hline(sx, tx, sy, c)
		g.vline(tx, sy, ty, c)
		if sx != tx && sy != ty {
			g.set(tx, sy, corner(tx > sx, ty > sy), c)
		}
		g.set(tx, ty, '●', c)
	}

	nodes := make([]*graph.Node, 0, gr.NodeCount())
	for _, id := range gr.NodeIDs() {
		if id != d.RootID {
			nodes = append(nodes, gr.Nodes[id])
		}
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Bounds.W*nodes[i].Bounds.H > nodes[j].Bounds.W*nodes[j].Bounds.H
	})
	for _, n := range nodes {
		if n.ID == selected {
			g.box(n.Bounds, nodeLabel(n), doubleBox, classSelected)
			continue
		}
		g.box(n.Bounds, nodeLabel(n), singleBox, classNode)
	}

	if gh != nil && gh.visible {
		if gh.w > 1 {
			g.box(graph.Bounds{X: gh.x, Y: gh.y, W: gh.w, H: gh.h}, "", ghostBox, classGhost)
		} else {
			g.set(gh.x, gh.y, '+', classGhost)
		}
	}
}
