// Package nlp segments text into sentences and tokens for the supported
// languages. Every character of the input ends up in exactly one token's
// Text or TrailingWhitespace, so concatenating the sentences reproduces the
// input byte for byte.
package nlp

import (
	"context"
	"regexp"
	"strings"
	"unicode"
)

// Token is a single analyzed unit of text.
type Token struct {
	Text         string
	Lemma        string
	PartOfSpeech string // universal tag, e.g. NOUN, NUM, PUNCT
	Reading      string // kana reading, Japanese only

	IsAlpha    bool
	IsSpace    bool
	IsPunct    bool
	LikeNumber bool
	LikeURL    bool
	LikeEmail  bool

	TrailingWhitespace string
}

// Sentence is an ordered run of tokens.
type Sentence struct {
	Tokens []Token
}

// Text reconstructs the sentence verbatim, whitespace included.
func (s Sentence) Text() string {
	var b strings.Builder
	for _, t := range s.Tokens {
		b.WriteString(t.Text)
		b.WriteString(t.TrailingWhitespace)
	}
	return b.String()
}

// Tokenizer segments text in one language. Implementations are CPU-bound and
// safe for concurrent use.
type Tokenizer interface {
	Tokenize(text string) []Sentence
}

// Provider tokenizes text for a language code.
type Provider interface {
	Tokenize(ctx context.Context, text, lang string) ([]Sentence, error)
}

var (
	reNumber   = regexp.MustCompile(`^[+\-±~]?\d+([.,]\d+)*$`)
	reFraction = regexp.MustCompile(`^\d+/\d+$`)
	reURL      = regexp.MustCompile(`(?i)^((https?|ftp)://|www\.)\S+$|^[a-z0-9-]+(\.[a-z0-9-]+)*\.(com|org|net|edu|gov|io|dev|app|info|co|jp|cn|uk|de|fr)(/\S*)?$`)
	reEmail    = regexp.MustCompile(`^[\w.+-]+@[\w-]+(\.[\w-]+)+$`)
)

var numberWords = map[string]bool{
	"zero": true, "one": true, "two": true, "three": true, "four": true, "five": true,
	"six": true, "seven": true, "eight": true, "nine": true, "ten": true, "eleven": true,
	"twelve": true, "thirteen": true, "fourteen": true, "fifteen": true, "sixteen": true,
	"seventeen": true, "eighteen": true, "nineteen": true, "twenty": true, "thirty": true,
	"forty": true, "fifty": true, "sixty": true, "seventy": true, "eighty": true,
	"ninety": true, "hundred": true, "thousand": true, "million": true, "billion": true,
}

func allRunes(s string, pred func(rune) bool) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !pred(r) {
			return false
		}
	}
	return true
}

// isAlpha accepts letters, with single apostrophes allowed between letters
// so contractions such as "don't" and "o'clock" count as words.
func isAlpha(s string) bool {
	runes := []rune(s)
	if len(runes) == 0 {
		return false
	}
	for i, r := range runes {
		if unicode.IsLetter(r) {
			continue
		}
		if !isApostrophe(r) || i == 0 || i == len(runes)-1 {
			return false
		}
		if !unicode.IsLetter(runes[i-1]) || !unicode.IsLetter(runes[i+1]) {
			return false
		}
	}
	return true
}

func isApostrophe(r rune) bool {
	return r == '\'' || r == '’'
}

// IsDigits reports whether s is non-empty and made only of decimal digits (any script).
func IsDigits(s string) bool {
	return allRunes(s, unicode.IsDigit)
}

// likeNumber treats digits with separators, simple fractions and English
// number words as numeric.
func likeNumber(s string) bool {
	return reNumber.MatchString(s) || reFraction.MatchString(s) || numberWords[strings.ToLower(s)]
}

// newToken derives the lexical flags of a surface form. Callers fill in
// Lemma and PartOfSpeech.
func newToken(surface string) Token {
	t := Token{
		Text:       surface,
		Lemma:      surface,
		IsSpace:    allRunes(surface, unicode.IsSpace),
		IsAlpha:    isAlpha(surface),
		IsPunct:    allRunes(surface, unicode.IsPunct),
		LikeNumber: likeNumber(surface),
		LikeURL:    reURL.MatchString(surface),
		LikeEmail:  reEmail.MatchString(surface),
	}
	switch {
	case t.IsSpace:
		t.PartOfSpeech = "SPACE"
	case t.IsPunct:
		t.PartOfSpeech = "PUNCT"
	case t.LikeNumber:
		t.PartOfSpeech = "NUM"
	}
	return t
}

// foldWhitespace moves whitespace-only tokens into the trailing whitespace
// of the token before them. Leading whitespace has no predecessor and stays
// a space token.
func foldWhitespace(tokens []Token) []Token {
	out := tokens[:0]
	for _, t := range tokens {
		if t.IsSpace && len(out) > 0 {
			out[len(out)-1].TrailingWhitespace += t.Text
			continue
		}
		out = append(out, t)
	}
	return out
}
