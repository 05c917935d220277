// Package hardword flags vocabulary whose corpus score is an outlier among
// the words of one article.
package hardword

import (
	"context"
	"math"

	"github.com/japaniel/lector/pkg/frequency"
	"github.com/japaniel/lector/pkg/nlp"
)

// DefaultK is the number of standard deviations past the mean a score must lie.
const DefaultK = 1.0

// TableProvider returns a language's frequency table.
type TableProvider interface {
	Table(ctx context.Context, lang string) (*frequency.Table, error)
}

type Detector struct {
	tokens nlp.Provider
	tables TableProvider
	k      float64
}

// NewDetector returns a detector with sensitivity k; k <= 0 means DefaultK.
func NewDetector(tokens nlp.Provider, tables TableProvider, k float64) *Detector {
	if k <= 0 {
		k = DefaultK
	}
	return &Detector{tokens: tokens, tables: tables, k: k}
}

// Detect tokenizes text and returns the set of hard lemmas.
func (d *Detector) Detect(ctx context.Context, text, lang string) (map[string]bool, error) {
	table, err := d.tables.Table(ctx, lang)
	if err != nil {
		return nil, err
	}
	sents, err := d.tokens.Tokenize(ctx, text, lang)
	if err != nil {
		return nil, err
	}
	lemmas := make(map[string]bool)
	for _, s := range sents {
		for _, tok := range s.Tokens {
			if tok.IsSpace {
				continue
			}
			if l := nlp.LemmaOf(tok, lang); l != "" {
				lemmas[l] = true
			}
		}
	}
	return Outliers(lemmas, table, d.k), nil
}

// Outliers intersects lemmas with the table and returns the words whose
// score lies strictly beyond mean ± k·σ (population σ) in the table's
// difficulty direction: above for rarity scores, below for frequency scores.
func Outliers(lemmas map[string]bool, table *frequency.Table, k float64) map[string]bool {
	hard := make(map[string]bool)
	if table == nil {
		return hard
	}

	words := make([]string, 0, len(lemmas))
	var sum float64
	for l := range lemmas {
		if score, ok := table.Scores[l]; ok {
			words = append(words, l)
			sum += score
		}
	}
	if len(words) == 0 {
		return hard
	}

	n := float64(len(words))
	mean := sum / n
	var sq float64
	for _, w := range words {
		diff := table.Scores[w] - mean
		sq += diff * diff
	}
	std := math.Sqrt(sq / n)
	if math.IsNaN(std) {
		std = 0
	}

	for _, w := range words {
		score := table.Scores[w]
		switch table.Direction {
		case frequency.Frequency:
			if score < mean-k*std {
				hard[w] = true
			}
		default:
			if score > mean+k*std {
				hard[w] = true
			}
		}
	}
	return hard
}
