package nlp

import (
	"strings"

	"github.com/clipperhouse/uax29/v2/sentences"
	"github.com/clipperhouse/uax29/v2/words"
)

// Segmenter splits text with Unicode (UAX #29) sentence and word boundaries.
// It serves languages without a dedicated morphological analyzer.
type Segmenter struct {
	lemma func(surface string) string
}

// NewSegmenter returns a segmenter whose lemma is derived from the surface by fn.
func NewSegmenter(fn func(surface string) string) *Segmenter {
	if fn == nil {
		fn = func(s string) string { return s }
	}
	return &Segmenter{lemma: fn}
}

func (s *Segmenter) Tokenize(text string) []Sentence {
	var result []Sentence
	sents := sentences.FromString(text)
	for sents.Next() {
		var tokens []Token
		segs := words.FromString(sents.Value())
		for segs.Next() {
			t := newToken(segs.Value())
			if !t.IsSpace {
				t.Lemma = s.lemma(t.Text)
			}
			tokens = append(tokens, t)
		}
		tokens = foldWhitespace(tokens)
		if len(tokens) == 0 {
			continue
		}
		result = append(result, Sentence{Tokens: tokens})
	}
	return result
}

// englishLemma lower-cases the surface form; no morphological analysis.
func englishLemma(surface string) string {
	return strings.ToLower(surface)
}
