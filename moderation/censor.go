// Package moderation masks banned words in message text before the log
// coordinator appends a message.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Censor matches banned words with an Aho-Corasick automaton built once at
// startup. Matching runs on a normalized view of the text (lowercase,
// separators stripped) while masking is applied to the original runes, so
// spacing and casing survive.
type Censor struct {
	machine *goahocorasick.Machine
	mask    rune
}

func NewCensor(words []string, mask rune) (*Censor, error) {
	patterns := make([][]rune, 0, len(words))
	for _, word := range words {
		if normalized := foldRunes([]rune(word)); len(normalized) > 0 {
			patterns = append(patterns, normalized)
		}
	}
	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	return &Censor{machine: machine, mask: mask}, nil
}

// Apply replaces every banned span with the mask rune and returns the
// result. Text without matches is returned unchanged.
func (c *Censor) Apply(text string) string {
	origRunes := []rune(text)
	folded, origIdx := fold(origRunes)
	if len(folded) == 0 {
		return text
	}

	spans := c.machine.MultiPatternSearch(folded, false)
	if len(spans) == 0 {
		return text
	}

	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(origIdx) {
			continue
		}
		for i := origIdx[start]; i <= origIdx[end-1]; i++ {
			origRunes[i] = c.mask
		}
	}
	return string(origRunes)
}

// fold lowercases the text, drops separator runes, and records where each
// kept rune came from so matches can be mapped back onto the original.
func fold(runes []rune) (folded []rune, origIdx []int) {
	folded = make([]rune, 0, len(runes))
	origIdx = make([]int, 0, len(runes))
	for i, r := range runes {
		if isSeparator(r) {
			continue
		}
		folded = append(folded, unicode.ToLower(r))
		origIdx = append(origIdx, i)
	}
	return folded, origIdx
}

func foldRunes(runes []rune) []rune {
	folded, _ := fold(runes)
	return folded
}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
}
