// Package extract implements the Extractor Stack (spec §4.5): an ordered,
// first-match-wins set of backends converting a file into indexable text
// under byte/char caps.
package extract

import (
	"github.com/joyshmitz/ultrasearch/internal/docid"
	"github.com/joyshmitz/ultrasearch/internal/logging"
	"github.com/joyshmitz/ultrasearch/internal/ultraerr"
)

var log = logging.For("extractor-stack")

// ExtractedContent is the unified extraction result.
type ExtractedContent struct {
	Key            docid.DocKey
	Text           string
	Lang           string
	Truncated      bool
	ContentLang    string
	BytesProcessed int
}

// Context carries everything a backend needs to decide whether it claims
// a file and how to read it.
type Context struct {
	Path     string
	MaxBytes int64
	MaxChars int
	ExtHint  string
	MimeHint string
}

// Extractor is one pluggable conversion backend.
type Extractor interface {
	Name() string
	Supports(ctx Context) bool
	Extract(ctx Context, key docid.DocKey) (ExtractedContent, error)
}

// Stack runs backends in order, first match wins.
type Stack struct {
	backends []Extractor
}

// NewStack builds a Stack from an ordered backend list.
func NewStack(backends ...Extractor) *Stack {
	return &Stack{backends: backends}
}

// Extract runs the first backend that claims ctx. Returns
// ultraerr.ErrExtractUnsupported if none does.
func (s *Stack) Extract(key docid.DocKey, ctx Context) (ExtractedContent, error) {
	for _, b := range s.backends {
		if !b.Supports(ctx) {
			continue
		}
		content, err := b.Extract(ctx, key)
		if err != nil {
			log.WithError(err).WithField("backend", b.Name()).WithField("path", ctx.Path).
				Debug("extractor backend failed")
			return ExtractedContent{}, err
		}
		return content, nil
	}
	return ExtractedContent{}, ultraerr.Wrapf(ultraerr.ErrExtractUnsupported, "ext=%q path=%s", ctx.ExtHint, ctx.Path)
}

// EnforceCharLimit truncates text to at most maxChars runes, reporting
// whether truncation occurred. Truncation is always reported, never
// silent (spec §4.5).
func EnforceCharLimit(text string, maxChars int) (trimmed string, truncated bool) {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text, false
	}
	return string(runes[:maxChars]), true
}
