// Command ultrasearch-worker is the short-lived child process the Worker
// Supervisor (internal/worker) spawns per content-extraction job. It
// extracts one file to text with internal/extract's backend stack and
// prints a preview to stdout, the contract internal/worker.Spawn relies on.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joyshmitz/ultrasearch/internal/docid"
	"github.com/joyshmitz/ultrasearch/internal/extract"
	"github.com/joyshmitz/ultrasearch/internal/logging"
)

const envEnableExtractous = "ULTRASEARCH_ENABLE_EXTRACTOUS"

var log = logging.For("ultrasearch-worker")

type options struct {
	volumeID         uint16
	fileID           uint64
	path             string
	maxBytes         int64
	maxChars         int
	enableExtractous bool
}

func main() {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "ultrasearch-worker",
		Short:         "Extract one file's text content and print a preview",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}

	flags := cmd.Flags()
	flags.Uint16Var(&opts.volumeID, "volume-id", 0, "volume id component of the document key")
	flags.Uint64Var(&opts.fileID, "file-id", 0, "file reference number component of the document key")
	flags.StringVar(&opts.path, "path", "", "path to the file to extract")
	flags.Int64Var(&opts.maxBytes, "max-bytes", 10*1024*1024, "maximum bytes to read from the file")
	flags.IntVar(&opts.maxChars, "max-chars", 100_000, "maximum characters to keep after extraction")
	flags.BoolVar(&opts.enableExtractous, "enable-extractous", false, "enable the rich document extractor backend")

	cmd.MarkFlagRequired("path")

	if err := cmd.Execute(); err != nil {
		log.WithError(err).Error("extraction failed")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(opts *options) error {
	if v, ok := os.LookupEnv(envEnableExtractous); ok {
		opts.enableExtractous = v == "1" || strings.EqualFold(v, "true")
	}

	if _, err := os.Stat(opts.path); err != nil {
		return fmt.Errorf("file missing or unreadable: %w", err)
	}

	key := docid.FromParts(opts.volumeID, opts.fileID)
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(opts.path), "."))

	stack := extract.NewStack(
		extract.SimpleTextExtractor{},
		extract.RichExtractor{Enabled: opts.enableExtractous},
		extract.OCRExtractor{Enabled: false},
	)

	ctx := extract.Context{
		Path:     opts.path,
		MaxBytes: opts.maxBytes,
		MaxChars: opts.maxChars,
		ExtHint:  ext,
	}

	log.WithField("volume_id", opts.volumeID).
		WithField("file_id", opts.fileID).
		WithField("enable_extractous", opts.enableExtractous).
		Info("extracting")

	out, err := stack.Extract(key, ctx)
	if err != nil {
		return err
	}

	log.WithField("bytes_processed", out.BytesProcessed).
		WithField("truncated", out.Truncated).
		Info("extracted")

	fmt.Println(preview(out.Text, 200))
	return nil
}

func preview(text string, maxRunes int) string {
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes])
}

