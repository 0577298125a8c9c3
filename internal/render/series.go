package render

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/surveyloom/internal/survey"
)

type point struct {
	label string
	y     float64
}

var dateLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
}

func parseTime(s string) (time.Time, bool) {
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// seriesPoints counts responses per day when most values are dates, and per
// distinct number otherwise.
func seriesPoints(values []survey.Scalar) []point {
	days := map[string]int{}
	dated, answered := 0, 0
	for _, v := range values {
		if v.Blank() {
			continue
		}
		answered++
		if t, ok := parseTime(strings.TrimSpace(v.String())); ok {
			dated++
			days[t.Format("2006-01-02")]++
		}
	}
	if dated > 0 && dated*2 >= answered {
		keys := make([]string, 0, len(days))
		for k := range days {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pts := make([]point, len(keys))
		for i, k := range keys {
			pts[i] = point{k, float64(days[k])}
		}
		return pts
	}

	byValue := map[float64]int{}
	for _, x := range survey.Numbers(values) {
		byValue[x]++
	}
	xs := make([]float64, 0, len(byValue))
	for x := range byValue {
		xs = append(xs, x)
	}
	sort.Float64s(xs)
	pts := make([]point, len(xs))
	for i, x := range xs {
		pts[i] = point{fmt.Sprintf("%.4g", x), float64(byValue[x])}
	}
	return pts
}

func drawSeries(r *Renderer, a *Artifact, values []survey.Scalar) error {
	return seriesChart(r, a, seriesPoints(values), false)
}

func drawArea(r *Renderer, a *Artifact, values []survey.Scalar) error {
	return seriesChart(r, a, seriesPoints(values), true)
}

func seriesChart(r *Renderer, a *Artifact, pts []point, fill bool) error {
	if len(pts) == 0 {
		return ErrNoData
	}
	c := newCanvas(r.Width, r.Height, a.Title)
	p := plot{left: 48, top: 40, right: float64(r.Width) - 24, bottom: float64(r.Height) - 80}
	c.axes(p)
	top := 0.0
	for _, pt := range pts {
		if pt.y > top {
			top = pt.y
		}
	}
	step := 0.0
	if len(pts) > 1 {
		step = p.width() / float64(len(pts)-1)
	}
	xy := make([][2]float64, len(pts))
	for i, pt := range pts {
		xy[i] = [2]float64{p.left + float64(i)*step, p.bottom - pt.y/top*p.height()}
	}
	if fill {
		var d strings.Builder
		fmt.Fprintf(&d, "M%.1f,%.1f", xy[0][0], p.bottom)
		for _, q := range xy {
			fmt.Fprintf(&d, " L%.1f,%.1f", q[0], q[1])
		}
		fmt.Fprintf(&d, " L%.1f,%.1f Z", xy[len(xy)-1][0], p.bottom)
		c.path(d.String(), color(4), "none")
	}
	c.polyline(xy, color(0))
	every := len(pts)/10 + 1
	for i, pt := range pts {
		if i%every == 0 {
			c.rotatedText(xy[i][0], p.bottom+14, -35, pt.label)
		}
	}
	a.SVG = c.String()
	return nil
}
