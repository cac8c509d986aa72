package canvas

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/zonemap/pkg/descriptor"
)

const (
	nodeGlyph     = '●'
	pentagonGlyph = '⬟'
	edgeGlyph     = '·'
	heavyEdge     = '•'
)

type cell struct {
	ch     rune
	style  lipgloss.Style
	styled bool
}

type grid struct {
	cols, rows int
	cells      [][]cell
}

func newGrid(cols, rows int) *grid {
	g := &grid{cols: cols, rows: rows, cells: make([][]cell, rows)}
	for r := range g.cells {
		g.cells[r] = make([]cell, cols)
		for c := range g.cells[r] {
			g.cells[r][c] = cell{ch: ' '}
		}
	}
	return g
}

func (g *grid) set(col, row int, ch rune, style *lipgloss.Style) {
	if col < 0 || row < 0 || col >= g.cols || row >= g.rows {
		return
	}
	c := cell{ch: ch}
	if style != nil {
		c.style, c.styled = *style, true
	}
	g.cells[row][col] = c
}

func (g *grid) text(col, row int, s string, style *lipgloss.Style) {
	for i, r := range []rune(s) {
		g.set(col+i, row, r, style)
	}
}

// line draws a Bresenham line, leaving cells that already hold a glyph.
func (g *grid) line(x0, y0, x1, y1 int, ch rune, style *lipgloss.Style) {
	dx := int(math.Abs(float64(x1 - x0)))
	dy := -int(math.Abs(float64(y1 - y0)))
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	errAcc := dx + dy
	for {
		if g.inBounds(x0, y0) && g.cells[y0][x0].ch == ' ' {
			g.set(x0, y0, ch, style)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * errAcc
		if e2 >= dy {
			errAcc += dy
			x0 += sx
		}
		if e2 <= dx {
			errAcc += dx
			y0 += sy
		}
	}
}

func (g *grid) inBounds(col, row int) bool {
	return col >= 0 && row >= 0 && col < g.cols && row < g.rows
}

func (g *grid) String() string {
	var b strings.Builder
	for r, row := range g.cells {
		if r > 0 {
			b.WriteByte('\n')
		}
		for _, c := range row {
			if c.styled {
				b.WriteString(c.style.Render(string(c.ch)))
			} else {
				b.WriteRune(c.ch)
			}
		}
	}
	return b.String()
}

// Render draws the canvas into a cols x rows character grid. Nodes without
// a layout position yet are listed on the last row.
func (c *Canvas) Render(cols, rows int) string {
	if cols <= 0 || rows <= 0 {
		return ""
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	g := newGrid(cols, rows)
	sheet := c.sheet
	w, h := c.layoutConfig.Width, c.layoutConfig.Height
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}

	project := func(id string) (int, int, bool) {
		p, ok := c.positions[id]
		if !ok {
			return 0, 0, false
		}
		col := int(math.Round(p.X / w * float64(cols-1)))
		row := int(math.Round(p.Y / h * float64(rows-1)))
		return col, row, true
	}

	labelStyle := lipgloss.NewStyle().Foreground(termColor(sheet.LabelColor))
	lowStyle := lipgloss.NewStyle().Foreground(termColor(sheet.TimeLowLabelColor))
	glyph := edgeGlyph
	if sheet.EdgeWidth >= 3 {
		glyph = heavyEdge
	}

	for _, id := range c.edgeOrder {
		e := c.edges[id].el
		x0, y0, ok0 := project(e.Source)
		x1, y1, ok1 := project(e.Target)
		if !ok0 || !ok1 {
			continue
		}
		lineStyle := lipgloss.NewStyle().Foreground(termColor(e.Attributes[descriptor.AttrLineColor]))
		g.line(x0, y0, x1, y1, glyph, &lineStyle)

		ls := &labelStyle
		if e.StyleClass == descriptor.ClassTimeLow {
			ls = &lowStyle
		}
		mx, my := (x0+x1)/2, (y0+y1)/2
		g.text(mx-len([]rune(e.Label))/2, my, e.Label, ls)
	}

	var unplaced []string
	for _, id := range c.nodeOrder {
		it := c.nodes[id]
		x, y, ok := project(id)
		if !ok {
			unplaced = append(unplaced, id)
			continue
		}

		ch := nodeGlyph
		if it.el.StyleClass == descriptor.ClassPentagon {
			ch = pentagonGlyph
		}
		nodeStyle := lipgloss.NewStyle().Foreground(termColor(it.el.Attributes[descriptor.AttrBackgroundColor]))
		g.set(x, y, ch, &nodeStyle)

		ls := labelStyle
		if it.styles["border-width"] != "" && it.styles["border-width"] != "0" {
			ls = ls.Bold(true).Underline(true)
			if bc := it.styles["border-color"]; bc != "" {
				ls = ls.Foreground(termColor(bc))
			}
		}
		g.text(x+2, y, it.el.Label, &ls)
	}

	if len(unplaced) > 0 {
		g.text(0, rows-1, "unplaced: "+strings.Join(unplaced, ", "), &labelStyle)
	}

	return g.String()
}
