package extract

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"strings"

	"github.com/joyshmitz/ultrasearch/internal/docid"
	"github.com/joyshmitz/ultrasearch/internal/ultraerr"
)

var richOfficeExtensions = map[string]string{
	"docx": "word/document.xml",
	"pptx": "ppt/slides/slide1.xml",
	"xlsx": "xl/sharedStrings.xml",
}

var richUnsupportedExtensions = map[string]bool{
	"pdf": true, "doc": true, "odt": true, "rtf": true,
}

// RichExtractor handles Office Open XML documents by pulling text runs
// out of their zipped XML parts. It has no binding to a full-fidelity
// parser (the corpus carries no such library), so legacy binary formats
// (doc, pdf, odt, rtf) are claimed but always reported Unsupported rather
// than silently producing empty text.
type RichExtractor struct {
	Enabled bool
}

func (RichExtractor) Name() string { return "rich" }

func (r RichExtractor) Supports(ctx Context) bool {
	if !r.Enabled {
		return false
	}
	ext := strings.ToLower(ctx.ExtHint)
	_, isOOXML := richOfficeExtensions[ext]
	return isOOXML || richUnsupportedExtensions[ext]
}

func (r RichExtractor) Extract(ctx Context, key docid.DocKey) (ExtractedContent, error) {
	ext := strings.ToLower(ctx.ExtHint)
	part, isOOXML := richOfficeExtensions[ext]
	if !isOOXML {
		return ExtractedContent{}, ultraerr.Wrapf(ultraerr.ErrExtractUnsupported, "no rich-text parser for .%s", ext)
	}

	text, bytesRead, err := extractOOXMLText(ctx.Path, part)
	if err != nil {
		return ExtractedContent{}, ultraerr.Wrap(ultraerr.ErrExtractFailed, err.Error())
	}

	trimmed, truncated := EnforceCharLimit(text, ctx.MaxChars)
	return ExtractedContent{
		Key:            key,
		Text:           trimmed,
		Truncated:      truncated,
		BytesProcessed: bytesRead,
	}, nil
}

// xmlRun is the minimal shape needed to pull <w:t>/<a:t> text runs out of
// an Office Open XML part without a full schema-aware parser.
type xmlRun struct {
	XMLName xml.Name
	Chardata string `xml:",chardata"`
	Nodes   []xmlRun `xml:",any"`
}

func extractOOXMLText(path, part string) (string, int, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", 0, err
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != part {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", 0, err
		}
		defer rc.Close()

		raw, err := io.ReadAll(rc)
		if err != nil {
			return "", 0, err
		}

		var root xmlRun
		if err := xml.Unmarshal(raw, &root); err != nil {
			return "", len(raw), err
		}

		var sb strings.Builder
		collectText(&root, &sb)
		return sb.String(), len(raw), nil
	}

	return "", 0, nil
}

func collectText(node *xmlRun, sb *strings.Builder) {
	local := node.XMLName.Local
	if (local == "t" || strings.HasSuffix(local, ":t")) && strings.TrimSpace(node.Chardata) != "" {
		sb.WriteString(node.Chardata)
		sb.WriteByte(' ')
	}
	for i := range node.Nodes {
		collectText(&node.Nodes[i], sb)
	}
}
