package render

import (
	"strings"
	"unicode"

	"github.com/KaramelBytes/surveyloom/internal/survey"
)

var stopwords = map[string]bool{}

func init() {
	for _, w := range strings.Fields(`
		the and for are but not you all any can had her was one our out has him his how its
		may new now old see two who did get let say she too use with that this have from they
		will would there their what about which when your been were more some than them then
		into only also very just
		que nao com uma para por mais como mas dos das nos nas foi ser tem sao seu sua isso
		esta este essa esse pelo pela muito quando ele ela eles elas ate sim entao tambem
		meu minha ter bem`) {
		stopwords[w] = true
	}
}

// terms counts folded words of three or more letters, skipping stopwords.
func terms(values []survey.Scalar) map[string]int {
	out := map[string]int{}
	for _, v := range values {
		if v.Blank() {
			continue
		}
		words := strings.FieldsFunc(survey.Fold(v.String()), func(r rune) bool { return !unicode.IsLetter(r) })
		for _, w := range words {
			if len([]rune(w)) < 3 || stopwords[w] {
				continue
			}
			out[w]++
		}
	}
	return out
}

// drawTerms renders the most frequent words as a horizontal bar chart.
func drawTerms(r *Renderer, a *Artifact, values []survey.Scalar) error {
	freq := terms(values)
	cs := make([]count, 0, len(freq))
	for w, n := range freq {
		cs = append(cs, count{w, n})
	}
	sortCounts(cs)
	if r.MaxCategories > 0 && len(cs) > r.MaxCategories {
		cs = cs[:r.MaxCategories]
	}
	return horizontalBarChart(r, a, cs)
}
