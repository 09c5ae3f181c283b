package viz

import (
	"math"
	"strings"
)

const brailleBlank = 0x2800

// Braille cells hold 2x4 dots; dotBits[row][col] is the bit of each dot.
var dotBits = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// Canvas is a Braille pixel canvas of Width x Height characters, addressed
// in dots: (Width*2) x (Height*4).
type Canvas struct {
	Width, Height int
	grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, grid: make([][]rune, h)}
	for i := range c.grid {
		c.grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

func (c *Canvas) Clear() {
	for _, row := range c.grid {
		for j := range row {
			row[j] = brailleBlank
		}
	}
}

// Set turns on the dot at (x, y); dots outside the canvas are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 || x >= c.Width*2 || y >= c.Height*4 {
		return
	}
	c.grid[y/4][x/2] |= dotBits[y%4][x%2]
}

// Line draws a segment with Bresenham's algorithm.
func (c *Canvas) Line(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), -absInt(y1-y0)
	sx, sy := 1, 1
	if x1 < x0 {
		sx = -1
	}
	if y1 < y0 {
		sy = -1
	}
	e := dx + dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// Viewport maps world coordinates onto canvas dots, y pointing up.
type Viewport struct {
	MinX, MaxX, MinY, MaxY float64
	c                      *Canvas
}

func (c *Canvas) Viewport(minX, maxX, minY, maxY float64) Viewport {
	return Viewport{MinX: minX, MaxX: maxX, MinY: minY, MaxY: maxY, c: c}
}

func (v Viewport) Dot(x, y float64) (int, int) {
	w, h := float64(v.c.Width*2-1), float64(v.c.Height*4-1)
	px := (x - v.MinX) / (v.MaxX - v.MinX) * w
	py := (v.MaxY - y) / (v.MaxY - v.MinY) * h
	return int(math.Round(px)), int(math.Round(py))
}

func (v Viewport) Line(x0, y0, x1, y1 float64) {
	a, b := v.Dot(x0, y0)
	c, d := v.Dot(x1, y1)
	v.c.Line(a, b, c, d)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
