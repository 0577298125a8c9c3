package responses

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/KaramelBytes/surveyloom/internal/survey"
)

// Patterns match folded text, so they carry no diacritics.
var (
	affirmativePatterns = compileAll(
		`\bsim\b`, `\bs\b`, `\byes\b`, `\bsi\b`,
		`problema`, `dificuldade`, `dificil`, `complicado`,
		`erro`, `bug`, `falha`, `travou`, `nao funcionou`,
		`lento`, `demorou`, `complicou`, `confuso`,
	)
	negativePatterns = compileAll(
		`\bnao\b`, `\bno\b`, `\bn\b`,
		`facil`, `tranquilo`, `simples`, `ok`, `\bok\b`,
		`sem problema`, `funcionou`, `normal`, `tudo bem`,
		`suave`, `beleza`, `perfeito`,
	)
	shortAffirmative = map[string]bool{"s": true, "sim": true, "si": true, "yes": true}
	shortNegative    = map[string]bool{"n": true, "não": true, "nao": true, "no": true}
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

func hits(res []*regexp.Regexp, s string) int {
	n := 0
	for _, re := range res {
		if re.MatchString(s) {
			n++
		}
	}
	return n
}

// Fallback classifies a response with keyword rules only.
func Fallback(response string) Result {
	text := survey.Fold(strings.TrimSpace(response))
	if utf8.RuneCountInString(text) <= 2 {
		switch {
		case shortAffirmative[text]:
			return Result{Category: Affirmative, Confidence: 90, Explanation: "Resposta afirmativa curta"}
		case shortNegative[text]:
			return Result{Category: Negative, Confidence: 90, Explanation: "Resposta negativa curta"}
		default:
			return Result{Category: Other, Confidence: 30, Explanation: "Resposta muito curta e ambígua"}
		}
	}
	yes := hits(affirmativePatterns, text)
	no := hits(negativePatterns, text)
	switch {
	case yes > no:
		return Result{Category: Affirmative, Confidence: min(80, 50+10*yes), Explanation: "Indica problemas/dificuldades"}
	case no > yes:
		return Result{Category: Negative, Confidence: min(80, 50+10*no), Explanation: "Indica ausência de problemas"}
	default:
		return Result{Category: Other, Confidence: 40, Explanation: "Resposta ambígua ou neutra"}
	}
}
