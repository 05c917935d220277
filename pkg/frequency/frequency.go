// Package frequency loads per-language word score tables.
package frequency

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/japaniel/lector/pkg/apperr"
	"github.com/japaniel/lector/pkg/nlp"
)

// Direction says how a table's scores relate to difficulty.
type Direction string

const (
	// Rarity scores grow as words get rarer (e.g. negative log probability).
	Rarity Direction = "rarity"
	// Frequency scores grow as words get more common (e.g. Zipf).
	Frequency Direction = "frequency"
)

// ParseDirection accepts "rarity", "frequency" or "" (rarity).
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case "", Rarity:
		return Rarity, nil
	case Frequency:
		return Frequency, nil
	}
	return "", fmt.Errorf("unknown score direction %q", s)
}

// Table maps a word to its score.
type Table struct {
	Scores    map[string]float64
	Direction Direction
}

// Source is where a language's table lives.
type Source struct {
	Path      string
	Direction Direction
}

// Load reads a "word,score" CSV. The header row is optional; blank words are
// skipped and a repeated word keeps its first score.
func Load(r io.Reader, dir Direction) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	t := &Table{Scores: make(map[string]float64), Direction: dir}
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("line %d: expected word,score", line)
		}
		word := strings.TrimSpace(rec[0])
		score, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("line %d: bad score %q: %w", line, rec[1], err)
		}
		if word == "" {
			continue
		}
		if _, dup := t.Scores[word]; !dup {
			t.Scores[word] = score
		}
	}
	return t, nil
}

// LoadFile opens path and calls Load.
func LoadFile(path string, dir Direction) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f, dir)
}

// Provider serves tables by language code, loading each file at most once.
type Provider struct {
	sources map[string]Source

	mu     sync.RWMutex
	tables map[string]*Table
	group  singleflight.Group
}

// NewProvider keys sources by language code; codes are normalized.
func NewProvider(sources map[string]Source) *Provider {
	norm := make(map[string]Source, len(sources))
	for code, src := range sources {
		norm[nlp.NormalizeLanguage(code)] = src
	}
	return &Provider{sources: norm, tables: make(map[string]*Table)}
}

// Table returns the table for lang. A language without a configured file
// fails with UnsupportedLanguage.
func (p *Provider) Table(ctx context.Context, lang string) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	code := nlp.NormalizeLanguage(lang)

	p.mu.RLock()
	t, ok := p.tables[code]
	p.mu.RUnlock()
	if ok {
		return t, nil
	}

	src, ok := p.sources[code]
	if !ok || src.Path == "" {
		return nil, apperr.Newf(apperr.UnsupportedLanguage, "no frequency table for language %q", lang)
	}

	v, err, _ := p.group.Do(code, func() (interface{}, error) {
		p.mu.RLock()
		t, ok := p.tables[code]
		p.mu.RUnlock()
		if ok {
			return t, nil
		}
		t, err := LoadFile(src.Path, src.Direction)
		if err != nil {
			return nil, fmt.Errorf("load %s frequency table: %w", code, err)
		}
		p.mu.Lock()
		p.tables[code] = t
		p.mu.Unlock()
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Table), nil
}
