package extract

import (
	"strings"

	"github.com/joyshmitz/ultrasearch/internal/docid"
	"github.com/joyshmitz/ultrasearch/internal/ultraerr"
)

var ocrImageExtensions = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "tiff": true, "bmp": true, "gif": true,
}

// OCRExtractor claims image formats when enabled. No OCR engine is wired
// in this build (the corpus carries no OCR library); claiming without a
// working backend would silently index nothing, so Extract always fails
// loudly instead.
type OCRExtractor struct {
	Enabled bool
}

func (OCRExtractor) Name() string { return "ocr" }

func (o OCRExtractor) Supports(ctx Context) bool {
	return o.Enabled && ocrImageExtensions[strings.ToLower(ctx.ExtHint)]
}

func (OCRExtractor) Extract(ctx Context, key docid.DocKey) (ExtractedContent, error) {
	return ExtractedContent{}, ultraerr.Wrap(ultraerr.ErrExtractFailed, "ocr backend not wired in this build")
}
