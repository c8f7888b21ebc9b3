package extract

import "github.com/joyshmitz/ultrasearch/internal/docid"

// NoopExtractor claims everything and returns empty text; wired only in
// test harnesses as a terminal fallback so Stack.Extract never reports
// Unsupported for files the other backends skip.
type NoopExtractor struct{}

func (NoopExtractor) Name() string { return "noop" }

func (NoopExtractor) Supports(Context) bool { return true }

func (NoopExtractor) Extract(ctx Context, key docid.DocKey) (ExtractedContent, error) {
	return ExtractedContent{Key: key}, nil
}
