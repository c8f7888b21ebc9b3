package extract

import (
	"os"
	"strings"

	"github.com/joyshmitz/ultrasearch/internal/docid"
	"github.com/joyshmitz/ultrasearch/internal/ultraerr"
)

var simpleTextExtensions = map[string]bool{
	"txt": true, "log": true, "md": true, "json": true, "jsonl": true,
	"toml": true, "yaml": true, "yml": true, "go": true, "rs": true,
	"ts": true, "tsx": true, "js": true, "py": true, "c": true, "h": true,
	"cpp": true, "java": true, "sh": true, "ini": true, "csv": true,
}

// SimpleTextExtractor handles plain-text and known code extensions.
type SimpleTextExtractor struct{}

func (SimpleTextExtractor) Name() string { return "simple-text" }

func (SimpleTextExtractor) Supports(ctx Context) bool {
	return simpleTextExtensions[strings.ToLower(ctx.ExtHint)]
}

func (SimpleTextExtractor) Extract(ctx Context, key docid.DocKey) (ExtractedContent, error) {
	info, err := os.Stat(ctx.Path)
	if err != nil {
		return ExtractedContent{}, ultraerr.Wrap(ultraerr.ErrExtractFailed, err.Error())
	}
	if info.Size() > ctx.MaxBytes {
		return ExtractedContent{}, ultraerr.Wrap(ultraerr.ErrExtractUnsupported, "file too large for simple extractor")
	}

	raw, err := os.ReadFile(ctx.Path)
	if err != nil {
		return ExtractedContent{}, ultraerr.Wrap(ultraerr.ErrExtractFailed, err.Error())
	}

	text, truncated := EnforceCharLimit(string(raw), ctx.MaxChars)
	return ExtractedContent{
		Key:            key,
		Text:           text,
		Truncated:      truncated,
		BytesProcessed: len(raw),
	}, nil
}
