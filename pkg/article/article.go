// Package article runs the reading pipeline for one URL: fetch, store,
// extract, detect hard words and annotate.
package article

import (
	"context"
	"fmt"
	"sort"

	"github.com/japaniel/lector/pkg/apperr"
	"github.com/japaniel/lector/pkg/db"
	"github.com/japaniel/lector/pkg/extract"
	"github.com/japaniel/lector/pkg/logger"
	"github.com/japaniel/lector/pkg/nlp"
)

type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type Store interface {
	GetOrCreateRawArticle(ctx context.Context, url, rawHTML string) (db.RawArticle, error)
}

type Extractor interface {
	Extract(rawHTML, pageURL string) (*extract.Article, error)
}

type HardWordDetector interface {
	Detect(ctx context.Context, text, lang string) (map[string]bool, error)
}

type Annotator interface {
	Annotate(ctx context.Context, contentHTML, lang string, hard map[string]bool) (string, error)
}

// Result is an annotated article ready for a reader.
type Result struct {
	ArticleID string           `json:"articleId" yaml:"article_id"`
	Title     string           `json:"title" yaml:"title"`
	Author    string           `json:"author" yaml:"author"`
	Language  string           `json:"lang" yaml:"lang"`
	HTML      string           `json:"rawHtml" yaml:"-"`
	HardWords []string         `json:"hardWords" yaml:"hard_words"`
	Metadata  extract.Metadata `json:"metadata" yaml:"metadata"`
}

type Service struct {
	fetcher   Fetcher
	store     Store
	extractor Extractor
	detector  HardWordDetector
	annotator Annotator
	log       *logger.Logger
}

func NewService(fetcher Fetcher, store Store, extractor Extractor, detector HardWordDetector, annotator Annotator, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		fetcher:   fetcher,
		store:     store,
		extractor: extractor,
		detector:  detector,
		annotator: annotator,
		log:       log,
	}
}

// Fetch downloads url and returns its annotated content. Fetch and
// extraction failures are terminal; an unsupported language fails fast.
func (s *Service) Fetch(ctx context.Context, url string) (*Result, error) {
	rawHTML, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	raw, err := s.store.GetOrCreateRawArticle(ctx, url, rawHTML)
	if err != nil {
		return nil, fmt.Errorf("GetOrCreateRawArticle > %w", err)
	}
	return s.process(ctx, raw)
}

// process annotates an already stored raw article.
func (s *Service) process(ctx context.Context, raw db.RawArticle) (*Result, error) {
	a, err := s.extractor.Extract(raw.RawHTML, raw.URL)
	if err != nil {
		return nil, err
	}
	lang := a.Language()
	if !nlp.Supported(lang) {
		return nil, apperr.Newf(apperr.UnsupportedLanguage, "detected language %q is not supported", lang)
	}

	hard, err := s.detector.Detect(ctx, a.PlainText(), lang)
	if err != nil {
		return nil, err
	}
	annotated, err := s.annotator.Annotate(ctx, a.ContentHTML(), lang, hard)
	if err != nil {
		return nil, err
	}

	words := make([]string, 0, len(hard))
	for w := range hard {
		words = append(words, w)
	}
	sort.Strings(words)

	meta := a.Metadata()
	s.log.Info("article processed",
		"article_id", raw.ID,
		"url", raw.URL,
		"lang", lang,
		"hard_words", len(words),
	)
	return &Result{
		ArticleID: raw.ID,
		Title:     meta.Title,
		Author:    meta.Author,
		Language:  lang,
		HTML:      annotated,
		HardWords: words,
		Metadata:  meta,
	}, nil
}
