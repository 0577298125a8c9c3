package render

import (
	"fmt"
	"html"
	"strings"
)

var palette = []string{
	"#4472C4", "#ED7D31", "#A5A5A5", "#FFC000", "#5B9BD5", "#70AD47",
	"#264478", "#9E480E", "#636363", "#997300", "#255E91", "#43682B",
}

func color(i int) string { return palette[i%len(palette)] }

// canvas accumulates SVG markup.
type canvas struct {
	b    strings.Builder
	w, h int
}

func newCanvas(w, h int, title string) *canvas {
	c := &canvas{w: w, h: h}
	fmt.Fprintf(&c.b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d" role="img">`, w, h, w, h)
	fmt.Fprintf(&c.b, `<title>%s</title>`, html.EscapeString(title))
	fmt.Fprintf(&c.b, `<rect width="%d" height="%d" fill="#ffffff"/>`, w, h)
	c.text(float64(w)/2, 22, "middle", 15, title)
	return c
}

func (c *canvas) rect(x, y, w, h float64, fill string) {
	fmt.Fprintf(&c.b, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`, x, y, w, h, fill)
}

func (c *canvas) line(x1, y1, x2, y2 float64, stroke string) {
	fmt.Fprintf(&c.b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s"/>`, x1, y1, x2, y2, stroke)
}

func (c *canvas) text(x, y float64, anchor string, size int, s string) {
	fmt.Fprintf(&c.b, `<text x="%.1f" y="%.1f" text-anchor="%s" font-family="sans-serif" font-size="%d">%s</text>`,
		x, y, anchor, size, html.EscapeString(s))
}

func (c *canvas) rotatedText(x, y, deg float64, s string) {
	fmt.Fprintf(&c.b, `<text x="%.1f" y="%.1f" text-anchor="end" font-family="sans-serif" font-size="11" transform="rotate(%.0f %.1f %.1f)">%s</text>`,
		x, y, deg, x, y, html.EscapeString(s))
}

func (c *canvas) path(d, fill, stroke string) {
	fmt.Fprintf(&c.b, `<path d="%s" fill="%s" stroke="%s"/>`, d, fill, stroke)
}

func (c *canvas) polyline(pts [][2]float64, stroke string) {
	var sb strings.Builder
	for i, p := range pts {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%.1f,%.1f", p[0], p[1])
	}
	fmt.Fprintf(&c.b, `<polyline points="%s" fill="none" stroke="%s" stroke-width="2"/>`, sb.String(), stroke)
}

func (c *canvas) String() string {
	return c.b.String() + "</svg>"
}

// plot is the drawable area inside the axes.
type plot struct {
	left, top, right, bottom float64
}

func (p plot) width() float64  { return p.right - p.left }
func (p plot) height() float64 { return p.bottom - p.top }

func (c *canvas) axes(p plot) {
	c.line(p.left, p.bottom, p.right, p.bottom, "#333333")
	c.line(p.left, p.top, p.left, p.bottom, "#333333")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
