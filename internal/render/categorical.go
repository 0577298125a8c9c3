package render

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/surveyloom/internal/survey"
)

type count struct {
	label string
	n     int
}

// tally counts trimmed non-blank values, most frequent first, ties in
// first-seen order. Entries past limit are folded into "Other".
func tally(values []survey.Scalar, limit int) []count {
	idx := map[string]int{}
	var out []count
	for _, v := range values {
		if v.Blank() {
			continue
		}
		s := strings.TrimSpace(v.String())
		if i, ok := idx[s]; ok {
			out[i].n++
			continue
		}
		idx[s] = len(out)
		out = append(out, count{s, 1})
	}
	return fold(out, limit)
}

func fold(cs []count, limit int) []count {
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].n > cs[j].n })
	if limit > 0 && len(cs) > limit {
		other := 0
		for _, c := range cs[limit-1:] {
			other += c.n
		}
		cs = append(cs[:limit-1:limit-1], count{"Other", other})
	}
	return cs
}

func maxCount(cs []count) int {
	m := 0
	for _, c := range cs {
		if c.n > m {
			m = c.n
		}
	}
	return m
}

func drawBars(r *Renderer, a *Artifact, values []survey.Scalar) error {
	return barChart(r, a, tally(values, r.MaxCategories))
}

func barChart(r *Renderer, a *Artifact, cs []count) error {
	if len(cs) == 0 {
		return ErrNoData
	}
	c := newCanvas(r.Width, r.Height, a.Title)
	p := plot{left: 48, top: 40, right: float64(r.Width) - 16, bottom: float64(r.Height) - 80}
	c.axes(p)
	top := float64(maxCount(cs))
	slot := p.width() / float64(len(cs))
	for i, cnt := range cs {
		h := float64(cnt.n) / top * p.height()
		x := p.left + float64(i)*slot + slot*0.1
		c.rect(x, p.bottom-h, slot*0.8, h, color(0))
		c.text(x+slot*0.4, p.bottom-h-4, "middle", 11, fmt.Sprint(cnt.n))
		c.rotatedText(x+slot*0.4, p.bottom+14, -35, truncate(cnt.label, 18))
	}
	a.SVG = c.String()
	return nil
}

func drawHorizontalBars(r *Renderer, a *Artifact, values []survey.Scalar) error {
	return horizontalBarChart(r, a, tally(values, r.MaxCategories))
}

func horizontalBarChart(r *Renderer, a *Artifact, cs []count) error {
	if len(cs) == 0 {
		return ErrNoData
	}
	c := newCanvas(r.Width, r.Height, a.Title)
	p := plot{left: 170, top: 40, right: float64(r.Width) - 48, bottom: float64(r.Height) - 20}
	c.axes(p)
	top := float64(maxCount(cs))
	slot := p.height() / float64(len(cs))
	for i, cnt := range cs {
		w := float64(cnt.n) / top * p.width()
		y := p.top + float64(i)*slot + slot*0.15
		c.rect(p.left, y, w, slot*0.7, color(i))
		c.text(p.left-6, y+slot*0.5, "end", 11, truncate(cnt.label, 26))
		c.text(p.left+w+4, y+slot*0.5, "start", 11, fmt.Sprint(cnt.n))
	}
	a.SVG = c.String()
	return nil
}

func drawPie(r *Renderer, a *Artifact, values []survey.Scalar) error {
	return pieChart(r, a, tally(values, min(r.MaxCategories, 8)), 0)
}

func drawDonut(r *Renderer, a *Artifact, values []survey.Scalar) error {
	return pieChart(r, a, tally(values, min(r.MaxCategories, 8)), 0.55)
}

// pieChart draws slices clockwise from twelve o'clock. hole is the inner
// radius as a fraction of the outer one; 0 draws a full pie.
func pieChart(r *Renderer, a *Artifact, cs []count, hole float64) error {
	if len(cs) == 0 {
		return ErrNoData
	}
	total := 0
	for _, cnt := range cs {
		total += cnt.n
	}
	c := newCanvas(r.Width, r.Height, a.Title)
	cx, cy := float64(r.Height)/2+20, float64(r.Height)/2+14
	rad := float64(r.Height)/2 - 40
	start := -math.Pi / 2
	for i, cnt := range cs {
		frac := float64(cnt.n) / float64(total)
		end := start + frac*2*math.Pi
		if len(cs) == 1 {
			fmt.Fprintf(&c.b, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>`, cx, cy, rad, color(i))
		} else {
			large := 0
			if frac > 0.5 {
				large = 1
			}
			x1, y1 := cx+rad*math.Cos(start), cy+rad*math.Sin(start)
			x2, y2 := cx+rad*math.Cos(end), cy+rad*math.Sin(end)
			c.path(fmt.Sprintf("M%.1f,%.1f L%.1f,%.1f A%.1f,%.1f 0 %d 1 %.1f,%.1f Z", cx, cy, x1, y1, rad, rad, large, x2, y2),
				color(i), "#ffffff")
		}
		ly := 50 + float64(i)*22
		c.rect(float64(r.Height)+40, ly-10, 12, 12, color(i))
		c.text(float64(r.Height)+58, ly, "start", 12, fmt.Sprintf("%s (%.1f%%)", truncate(cnt.label, 28), frac*100))
		start = end
	}
	if hole > 0 {
		fmt.Fprintf(&c.b, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="#ffffff"/>`, cx, cy, rad*hole)
		c.text(cx, cy+5, "middle", 14, fmt.Sprintf("n=%d", total))
	}
	a.SVG = c.String()
	return nil
}

// sortCounts orders by count descending, then label.
func sortCounts(cs []count) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].n != cs[j].n {
			return cs[i].n > cs[j].n
		}
		return cs[i].label < cs[j].label
	})
}
