package nlp

import (
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Analyzer tokenizes Japanese with kagome and the IPA dictionary.
type Analyzer struct {
	t *tokenizer.Tokenizer
}

// NewAnalyzer creates a new tokenizer instance.
func NewAnalyzer() (*Analyzer, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Analyzer{t: t}, nil
}

// ipaPOS maps the primary IPA part of speech to a universal tag.
var ipaPOS = map[string]string{
	"名詞":   "NOUN",
	"動詞":   "VERB",
	"形容詞":  "ADJ",
	"副詞":   "ADV",
	"助詞":   "ADP",
	"助動詞":  "AUX",
	"連体詞":  "DET",
	"接続詞":  "CCONJ",
	"感動詞":  "INTJ",
	"接頭詞":  "X",
	"記号":   "PUNCT",
	"フィラー": "INTJ",
}

// Analyze breaks text into tokens with readings and base forms. Gaps the
// dictionary does not cover are kept as their own tokens so no text is lost.
func (a *Analyzer) Analyze(text string) []Token {
	var result []Token
	cursor := 0
	for _, tok := range a.t.Tokenize(text) {
		if tok.Class == tokenizer.DUMMY {
			continue
		}
		if tok.Position > cursor && tok.Position <= len(text) {
			result = append(result, newToken(text[cursor:tok.Position]))
		}
		result = append(result, a.token(tok))
		cursor = tok.Position + len(tok.Surface)
	}
	if cursor < len(text) {
		result = append(result, newToken(text[cursor:]))
	}
	return foldWhitespace(result)
}

func (a *Analyzer) token(tok tokenizer.Token) Token {
	t := newToken(tok.Surface)

	// Kagome IPA features:
	// 0: Part of Speech
	// 1: Sub-POS 1
	// 6: Base Form (Lemma)
	// 7: Reading
	features := tok.Features()
	if len(features) > 6 && features[6] != "*" {
		t.Lemma = features[6]
	}
	if len(features) > 7 && features[7] != "*" {
		t.Reading = features[7]
	}
	if t.IsSpace {
		return t
	}
	if len(features) > 0 {
		if pos, ok := ipaPOS[features[0]]; ok {
			t.PartOfSpeech = pos
		}
		if features[0] == "名詞" && len(features) > 1 && features[1] == "数" {
			t.PartOfSpeech = "NUM"
		}
	}
	return t
}

// Tokenize splits the text into sentences and tokenizes each sentence.
func (a *Analyzer) Tokenize(text string) []Sentence {
	var result []Sentence
	for _, s := range splitSentences(text) {
		tokens := a.Analyze(s)
		if len(tokens) == 0 {
			continue
		}
		result = append(result, Sentence{Tokens: tokens})
	}
	return result
}

func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		// 。(3002), ！(FF01), ？(FF1F) and newlines end a sentence.
		if r == '。' || r == '！' || r == '？' || r == '\n' {
			sentences = append(sentences, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, current.String())
	}
	return sentences
}
