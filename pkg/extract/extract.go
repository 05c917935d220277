// Package extract turns a fetched page into its readable article: sanitized
// main-content HTML, plain text, detected language and metadata.
package extract

import (
	"bytes"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
	"github.com/pemistahl/lingua-go"
	"golang.org/x/net/html"

	"github.com/japaniel/lector/pkg/apperr"
)

// Metadata describes the article beyond its body.
type Metadata struct {
	Title         string     `json:"title" yaml:"title"`
	Author        string     `json:"author" yaml:"author"`
	SiteName      string     `json:"siteName" yaml:"site_name"`
	Excerpt       string     `json:"excerpt" yaml:"excerpt"`
	PublishedTime *time.Time `json:"publishedTime,omitempty" yaml:"published_time,omitempty"`
	Hostname      string     `json:"hostname" yaml:"hostname"`
	URL           string     `json:"url" yaml:"url"`
}

// Extractor is safe for concurrent use.
type Extractor struct {
	policy   *bluemonday.Policy
	detector lingua.LanguageDetector
}

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// minRelativeDistance makes lingua report nothing rather than guess between
// close candidates.
const minRelativeDistance = 0.1

// languageDetector is built once per process; lingua models are large. It
// covers every language lingua knows so unsupported articles are reported
// under their own code instead of the nearest supported one.
func languageDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			WithMinimumRelativeDistance(minRelativeDistance).
			Build()
	})
	return detector
}

func NewExtractor() *Extractor {
	return &Extractor{
		policy:   bluemonday.UGCPolicy(),
		detector: languageDetector(),
	}
}

// Extract parses rawHTML with readability. It fails with ExtractionFailed
// when no readable content is found.
func (e *Extractor) Extract(rawHTML, pageURL string) (*Article, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, apperr.Newf(apperr.ExtractionFailed, "parse url %q: %w", pageURL, err)
	}
	parsed, err := readability.FromReader(bytes.NewReader(SanitizeRuby([]byte(rawHTML))), u)
	if err != nil {
		return nil, apperr.Newf(apperr.ExtractionFailed, "readability: %w", err)
	}
	a := &Article{ex: e, parsed: parsed, url: u}
	if a.PlainText() == "" {
		return nil, apperr.Newf(apperr.ExtractionFailed, "no readable text in %q", pageURL)
	}
	return a, nil
}

// Article computes each derived view on first access and reuses it.
// Concurrent callers wait for the first computation.
type Article struct {
	ex     *Extractor
	parsed readability.Article
	url    *url.URL

	fullOnce    sync.Once
	fullHTML    string
	contentOnce sync.Once
	contentHTML string
	textOnce    sync.Once
	plainText   string
	langOnce    sync.Once
	language    string
	metaOnce    sync.Once
	metadata    Metadata
}

// FullHTML is the readable main content, sanitized.
func (a *Article) FullHTML() string {
	a.fullOnce.Do(func() {
		a.fullHTML = a.ex.policy.Sanitize(a.parsed.Content)
	})
	return a.fullHTML
}

// ContentHTML is FullHTML without its first <h1>, which is shown as the title.
func (a *Article) ContentHTML() string {
	a.contentOnce.Do(func() {
		a.contentHTML = removeFirstH1(a.FullHTML())
	})
	return a.contentHTML
}

// PlainText joins the trimmed, non-empty text nodes of FullHTML with newlines.
func (a *Article) PlainText() string {
	a.textOnce.Do(func() {
		a.plainText = plainText(a.FullHTML())
	})
	return a.plainText
}

// Language is the lowercase ISO 639-1 code of the detected language, or ""
// when detection is inconclusive.
func (a *Article) Language() string {
	a.langOnce.Do(func() {
		a.language = detectLanguage(a.ex.detector, a.PlainText())
	})
	return a.language
}

func (a *Article) Metadata() Metadata {
	a.metaOnce.Do(func() {
		a.metadata = Metadata{
			Title:         strings.TrimSpace(a.parsed.Title),
			Author:        strings.TrimSpace(a.parsed.Byline),
			SiteName:      strings.TrimSpace(a.parsed.SiteName),
			Excerpt:       strings.TrimSpace(a.parsed.Excerpt),
			PublishedTime: a.parsed.PublishedTime,
		}
		if a.url != nil {
			a.metadata.Hostname = a.url.Hostname()
			a.metadata.URL = a.url.String()
		}
	})
	return a.metadata
}

func detectLanguage(d lingua.LanguageDetector, text string) string {
	if d == nil || text == "" {
		return ""
	}
	lang, ok := d.DetectLanguageOf(text)
	if !ok {
		return ""
	}
	return strings.ToLower(lang.IsoCode639_1().String())
}

func removeFirstH1(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	h1 := doc.Find("h1").First()
	if h1.Length() == 0 {
		return fragment
	}
	h1.Remove()
	out, err := doc.Find("body").Html()
	if err != nil {
		return fragment
	}
	return out
}

func plainText(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(n.Data); s != "" {
				parts = append(parts, s)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Find("body").Nodes {
		walk(n)
	}
	return strings.Join(parts, "\n")
}
