package persona

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/easeaico/finadvisor/internal/types"
	"github.com/easeaico/finadvisor/internal/utils"
)

const (
	interjectionChance = 0.3
	patternChance      = 0.25
	casualChance       = 0.3
	regionalChance     = 0.3
	regionalSubChance  = 0.5
	patternMinLength   = 20
	casualMinLength    = 15
	casualMaxFormality = 2
	fillerMaxFormality = 3
	wordsPerFiller     = 20
	maxFillers         = 2
)

var wordPattern = regexp.MustCompile(`\S+`)

// Humanizer rewrites model replies with personality speech patterns.
type Humanizer struct {
	catalog *Catalog
	rnd     types.Rand
}

// NewHumanizer returns a Humanizer drawing every choice from rnd.
func NewHumanizer(catalog *Catalog, rnd types.Rand) *Humanizer {
	return &Humanizer{catalog: catalog, rnd: rnd}
}

// Humanize applies the stylistic transforms to raw. region may be empty.
func (h *Humanizer) Humanize(raw string, profile types.PersonalityProfile, formality int, allowFillers bool, region string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return raw
	}

	if h.rnd.Float64() < interjectionChance {
		if interjection := utils.Pick(h.rnd, profile.Interjections); interjection != "" && startsWithUpper(text) && !hasPrefixFold(text, interjection) {
			text = interjection + " " + lowerFirst(text)
		}
	}

	sentences := splitSentences(text)
	for i, s := range sentences {
		if utf8.RuneCountInString(strings.TrimSpace(s)) <= patternMinLength {
			continue
		}
		if h.rnd.Float64() >= patternChance {
			continue
		}
		pattern := utils.Pick(h.rnd, profile.SignaturePhrases)
		if pattern != "" && startsWithUpper(s) && !hasPrefixFold(s, pattern) {
			sentences[i] = upperFirst(pattern) + ", " + lowerFirst(s)
		}
	}

	if formality <= casualMaxFormality {
		for i, s := range sentences {
			if utf8.RuneCountInString(strings.TrimSpace(s)) <= casualMinLength {
				continue
			}
			if h.rnd.Float64() >= casualChance {
				continue
			}
			word := utils.Pick(h.rnd, profile.CasualWords)
			if word == "" {
				continue
			}
			if h.rnd.Float64() < 0.5 {
				if startsWithUpper(s) && !hasPrefixFold(s, word) {
					sentences[i] = upperFirst(word) + ", " + lowerFirst(s)
				}
			} else {
				sentences[i] = h.insertInterior(s, word)
			}
		}
	}
	text = strings.Join(sentences, "")

	if allowFillers && formality <= fillerMaxFormality {
		n := min(utils.WordCount(text)/wordsPerFiller, maxFillers)
		for range n {
			text = h.insertInterior(text, utils.Pick(h.rnd, h.catalog.Fillers()))
		}
	}

	if region != "" && h.rnd.Float64() < regionalChance && h.rnd.Float64() < regionalSubChance {
		text = h.spliceRegional(text, region)
	}
	return text
}

// insertInterior inserts word before a randomly chosen word of s that is
// neither the first nor the last word, keeping the original spacing.
func (h *Humanizer) insertInterior(s, word string) string {
	if word == "" {
		return s
	}
	locs := wordPattern.FindAllStringIndex(s, -1)
	if len(locs) < 3 {
		return s
	}
	at := locs[1+h.rnd.IntN(len(locs)-2)][0]
	return s[:at] + word + " " + s[at:]
}

func (h *Humanizer) spliceRegional(text, region string) string {
	expr := utils.Pick(h.rnd, h.catalog.RegionalExpressions(region))
	if expr == "" {
		return text
	}
	sentences := splitSentences(text)
	if len(sentences) < 3 {
		return text
	}
	i := 1 + h.rnd.IntN(len(sentences)-2)
	if !startsWithUpper(sentences[i]) || hasPrefixFold(sentences[i], expr) {
		return text
	}
	sentences[i] = upperFirst(expr) + ", " + lowerFirst(sentences[i])
	return strings.Join(sentences, "")
}

// splitSentences cuts text after sentence-ending punctuation followed by
// whitespace. Joining the result reproduces text exactly.
func splitSentences(text string) []string {
	var out []string
	start, i := 0, 0
	for i < len(text) {
		if !isTerminator(text[i]) {
			i++
			continue
		}
		j := i + 1
		for j < len(text) && isTerminator(text[j]) {
			j++
		}
		k := j
		for k < len(text) && isSpace(text[k]) {
			k++
		}
		if k > j || k == len(text) {
			out = append(out, text[start:k])
			start = k
		}
		i = k
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

func isTerminator(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r'
}

func startsWithUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

// lowerFirst lower-cases the first letter unless the first word looks like
// an acronym.
func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if !unicode.IsUpper(r) {
		return s
	}
	if next, _ := utf8.DecodeRuneInString(s[size:]); unicode.IsUpper(next) {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func hasPrefixFold(s, prefix string) bool {
	prefix = strings.TrimRight(prefix, ",:")
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
