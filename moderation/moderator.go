// Package moderation censors forbidden terms in relayed chat text. Matching
// runs on a normalized shadow of the input (lowercased, separators stripped,
// simple digit substitutions undone) so spacing and punctuation tricks do
// not defeat it, while the visible output keeps the original layout.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

type Moderator struct {
	machine     *goahocorasick.Machine
	replacement rune
}

// NewModerator builds the Aho-Corasick automaton over the normalized word
// list. Words that normalize to nothing are dropped.
func NewModerator(words []string, replacement rune) (*Moderator, error) {
	patterns := make([][]rune, 0, len(words))
	for _, w := range words {
		norm, _ := normalize(w)
		if len(norm) > 0 {
			patterns = append(patterns, norm)
		}
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{machine: m, replacement: replacement}, nil
}

// Censor replaces every character of every matched term with the
// replacement rune and reports whether anything was replaced.
func (m *Moderator) Censor(text string) (string, bool) {
	norm, origIdx := normalize(text)
	if len(norm) == 0 {
		return text, false
	}

	spans := m.machine.MultiPatternSearch(norm, false)
	if len(spans) == 0 {
		return text, false
	}

	out := []rune(text)
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(origIdx) {
			continue
		}
		// Star out the original range covered by the normalized match,
		// first matched rune through last matched rune inclusive.
		for i := origIdx[start]; i <= origIdx[end-1]; i++ {
			out[i] = m.replacement
		}
	}
	return string(out), true
}

// normalize lowercases, undoes common digit substitutions and drops
// everything that is neither letter nor digit. origIdx maps each normalized
// rune back to its position in the original text.
func normalize(text string) (norm []rune, origIdx []int) {
	for i, r := range []rune(text) {
		r = unleet(r)
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		norm = append(norm, unicode.ToLower(r))
		origIdx = append(origIdx, i)
	}
	return norm, origIdx
}

func unleet(r rune) rune {
	switch r {
	case '0':
		return 'o'
	case '1', '!':
		return 'i'
	case '3', '€':
		return 'e'
	case '4', '@':
		return 'a'
	case '5', '$':
		return 's'
	case '7':
		return 't'
	default:
		return r
	}
}
