package moderation

import (
	"chat-presence/errors"
	"log/slog"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"
)

// Moderator masks forbidden words in message text.
// Matching ignores case, punctuation, spacing and common leet substitutions,
// so "B.4.d g€r" is caught by "badger".
type Moderator struct {
	matcher *goahocorasick.Machine
	mask    rune
	log     *slog.Logger
}

// folded is a text reduced to its significant runes.
// positions[i] is the index in the original rune slice of runes[i].
type folded struct {
	runes     []rune
	positions []int
}

// NewModerator builds the automaton from the folded words.
// Words that fold to nothing are dropped; errors.ErrEmptyWords is returned when none is left.
func NewModerator(words []string, mask rune, log *slog.Logger) (*Moderator, error) {
	patterns := lo.FilterMap(words, func(word string, _ int) ([]rune, bool) {
		f := fold([]rune(word))
		return f.runes, len(f.runes) > 0
	})
	if len(patterns) == 0 {
		return nil, errors.ErrEmptyWords
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{matcher: machine, mask: mask, log: log}, nil
}

// Censor returns the text with every forbidden span masked rune by rune, and the words found
// in order of appearance. Characters between the matched runes are masked too, spaces included.
func (m *Moderator) Censor(text string) (string, []string) {
	original := []rune(text)
	f := fold(original)
	if len(f.runes) == 0 {
		return text, nil
	}

	hits := m.matcher.MultiPatternSearch(f.runes, false)
	if len(hits) == 0 {
		return text, nil
	}

	var words []string
	for _, hit := range hits {
		end := hit.Pos + len(hit.Word)
		if hit.Pos < 0 || end > len(f.positions) {
			continue
		}
		for i := f.positions[hit.Pos]; i <= f.positions[end-1]; i++ {
			original[i] = m.mask
		}
		words = append(words, string(hit.Word))
	}

	m.log.Debug("Text censored", "words", words)
	return string(original), words
}

func fold(input []rune) folded {
	f := folded{
		runes:     make([]rune, 0, len(input)),
		positions: make([]int, 0, len(input)),
	}
	for i, r := range input {
		r = unleet(r)
		if isNoise(r) {
			continue
		}
		f.runes = append(f.runes, unicode.ToLower(r))
		f.positions = append(f.positions, i)
	}
	return f
}

func unleet(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
