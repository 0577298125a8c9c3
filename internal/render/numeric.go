package render

import (
	"fmt"
	"math"
	"sort"

	"github.com/KaramelBytes/surveyloom/internal/survey"
)

type bin struct {
	lo, hi float64
	n      int
}

// histogram buckets xs into Sturges' number of equal-width bins.
func histogram(xs []float64) []bin {
	lo, hi := xs[0], xs[0]
	for _, x := range xs {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	if lo == hi {
		return []bin{{lo, hi, len(xs)}}
	}
	k := int(math.Ceil(math.Log2(float64(len(xs))))) + 1
	if k > 30 {
		k = 30
	}
	width := (hi - lo) / float64(k)
	bins := make([]bin, k)
	for i := range bins {
		bins[i].lo = lo + float64(i)*width
		bins[i].hi = bins[i].lo + width
	}
	for _, x := range xs {
		i := int((x - lo) / width)
		if i >= k {
			i = k - 1
		}
		bins[i].n++
	}
	return bins
}

func drawHistogram(r *Renderer, a *Artifact, values []survey.Scalar) error {
	xs := survey.Numbers(values)
	if len(xs) == 0 {
		return ErrNoData
	}
	bins := histogram(xs)
	cs := make([]count, len(bins))
	for i, b := range bins {
		cs[i] = count{fmt.Sprintf("%.4g–%.4g", b.lo, b.hi), b.n}
	}
	return barChart(r, a, cs)
}

// drawDensity draws the histogram outline as a filled curve.
func drawDensity(r *Renderer, a *Artifact, values []survey.Scalar) error {
	xs := survey.Numbers(values)
	if len(xs) == 0 {
		return ErrNoData
	}
	bins := histogram(xs)
	pts := make([]point, len(bins))
	for i, b := range bins {
		pts[i] = point{fmt.Sprintf("%.4g", (b.lo+b.hi)/2), float64(b.n)}
	}
	return seriesChart(r, a, pts, true)
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	i := int(math.Floor(pos))
	if i >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + (pos-float64(i))*(sorted[i+1]-sorted[i])
}

func drawBox(r *Renderer, a *Artifact, values []survey.Scalar) error {
	xs := survey.Numbers(values)
	if len(xs) == 0 {
		return ErrNoData
	}
	sort.Float64s(xs)
	lo, hi := xs[0], xs[len(xs)-1]
	q1, med, q3 := quantile(xs, 0.25), quantile(xs, 0.5), quantile(xs, 0.75)

	c := newCanvas(r.Width, r.Height, a.Title)
	p := plot{left: 48, top: 60, right: float64(r.Width) - 48, bottom: float64(r.Height) - 60}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	x := func(v float64) float64 { return p.left + (v-lo)/span*p.width() }
	mid := (p.top + p.bottom) / 2
	c.line(x(lo), mid, x(q1), mid, "#333333")
	c.line(x(q3), mid, x(hi), mid, "#333333")
	c.line(x(lo), mid-20, x(lo), mid+20, "#333333")
	c.line(x(hi), mid-20, x(hi), mid+20, "#333333")
	c.rect(x(q1), mid-40, math.Max(x(q3)-x(q1), 1), 80, color(0))
	c.line(x(med), mid-40, x(med), mid+40, "#ffffff")
	for _, v := range []float64{lo, q1, med, q3, hi} {
		c.text(x(v), p.bottom+20, "middle", 11, fmt.Sprintf("%.4g", v))
	}
	a.SVG = c.String()
	return nil
}
