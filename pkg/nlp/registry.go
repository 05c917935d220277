package nlp

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/japaniel/lector/pkg/apperr"
)

// Language describes how a language is tokenized and lemmatized.
type Language struct {
	Code string
	// TrueLemma is set when the tokenizer yields a dictionary form; otherwise
	// the trimmed surface text stands in for the lemma.
	TrueLemma bool
	New       func() (Tokenizer, error)
}

// Languages lists the supported language codes.
var Languages = map[string]Language{
	"en": {
		Code:      "en",
		TrueLemma: true,
		New:       func() (Tokenizer, error) { return NewSegmenter(englishLemma), nil },
	},
	"ja": {
		Code:      "ja",
		TrueLemma: true,
		New:       func() (Tokenizer, error) { return NewAnalyzer() },
	},
	"zh": {
		Code:      "zh",
		TrueLemma: false,
		New:       func() (Tokenizer, error) { return NewSegmenter(nil), nil },
	},
}

// NormalizeLanguage lower-cases a code and folds regional variants
// ("zh-CN", "en_US") onto the base language.
func NormalizeLanguage(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	return code
}

// Supported reports whether lang has a tokenizer.
func Supported(lang string) bool {
	_, ok := Languages[NormalizeLanguage(lang)]
	return ok
}

// LemmaOf returns the lemma used for frequency and hard-word matching.
func LemmaOf(tok Token, lang string) string {
	l, ok := Languages[NormalizeLanguage(lang)]
	if ok && l.TrueLemma && tok.Lemma != "" {
		return tok.Lemma
	}
	return strings.TrimSpace(tok.Text)
}

// Registry builds tokenizers lazily, at most once per language, and reuses them.
type Registry struct {
	langs map[string]Language

	mu    sync.RWMutex
	cache map[string]Tokenizer
	group singleflight.Group
}

func NewRegistry() *Registry {
	return NewRegistryWith(Languages)
}

// NewRegistryWith uses a custom language table.
func NewRegistryWith(langs map[string]Language) *Registry {
	return &Registry{
		langs: langs,
		cache: make(map[string]Tokenizer),
	}
}

// Tokenizer returns the tokenizer for lang, building it on first use.
// Concurrent first calls share one construction.
func (r *Registry) Tokenizer(lang string) (Tokenizer, error) {
	code := NormalizeLanguage(lang)

	r.mu.RLock()
	t, ok := r.cache[code]
	r.mu.RUnlock()
	if ok {
		return t, nil
	}

	l, ok := r.langs[code]
	if !ok {
		return nil, apperr.Newf(apperr.UnsupportedLanguage, "no tokenizer for language %q", lang)
	}

	v, err, _ := r.group.Do(code, func() (interface{}, error) {
		r.mu.RLock()
		t, ok := r.cache[code]
		r.mu.RUnlock()
		if ok {
			return t, nil
		}
		t, err := l.New()
		if err != nil {
			return nil, fmt.Errorf("build %s tokenizer: %w", code, err)
		}
		r.mu.Lock()
		r.cache[code] = t
		r.mu.Unlock()
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Tokenizer), nil
}

// Tokenize implements Provider.
func (r *Registry) Tokenize(ctx context.Context, text, lang string) ([]Sentence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := r.Tokenizer(lang)
	if err != nil {
		return nil, err
	}
	return t.Tokenize(text), nil
}
