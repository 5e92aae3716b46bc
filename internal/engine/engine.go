package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/docstitch/docstitch/internal/document"
	"github.com/docstitch/docstitch/internal/llm"
	"github.com/docstitch/docstitch/internal/markup"
	"github.com/docstitch/docstitch/internal/parser"
)

// Config holds the engine's processing knobs.
type Config struct {
	// PageBatchSize is the number of pages sent to the model per request.
	PageBatchSize int
	// MaxAttempts bounds the model calls per batch, corrective retries
	// included.
	MaxAttempts int
	// MaxTokens and Temperature are passed through to the model client.
	MaxTokens   int
	Temperature float64
	// UseLayoutAnalysis renders pages through layout-aware markup instead
	// of using raw page text.
	UseLayoutAnalysis bool
	// PDFFallbackPdftotext enables shelling out to pdftotext when the
	// native PDF extractor yields nothing.
	PDFFallbackPdftotext bool
}

func (c *Config) applyDefaults() {
	if c.PageBatchSize <= 0 {
		c.PageBatchSize = 5
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 4096
	}
}

// Engine drives the full document-to-chunks conversion: parse, render,
// batch pages to the model, validate and stitch the returned events,
// and assemble chunks.
type Engine struct {
	client llm.Client
	cfg    Config
	log    *slog.Logger
}

func New(client llm.Client, cfg Config, log *slog.Logger) *Engine {
	cfg.applyDefaults()
	if log == nil {
		log = slog.Default()
	}
	return &Engine{client: client, cfg: cfg, log: log}
}

// Process reads and converts the document at path.
func (e *Engine) Process(ctx context.Context, path string) ([]document.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return e.ProcessBytes(ctx, data, filepath.Base(path))
}

// ProcessBytes converts an in-memory document. The filename selects the
// parser by extension.
func (e *Engine) ProcessBytes(ctx context.Context, data []byte, filename string) ([]document.Chunk, error) {
	prs, err := parser.ForFile(filename)
	if err != nil {
		return nil, err
	}
	if pdf, ok := prs.(*parser.PDFParser); ok {
		pdf.FallbackPdftotext = e.cfg.PDFFallbackPdftotext
	}

	pages, err := prs.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	return e.ProcessPages(ctx, pages, filename)
}

// ProcessPages converts already-parsed pages into chunks. Pages are
// batched in order; each batch's events are obtained with corrective
// retries, then committed to the stitcher page by page.
func (e *Engine) ProcessPages(ctx context.Context, pages []document.Page, sourceDocument string) ([]document.Chunk, error) {
	if len(pages) == 0 {
		return nil, nil
	}

	e.log.Info("processing document",
		"source", sourceDocument, "pages", len(pages),
		"batch_size", e.cfg.PageBatchSize, "client", e.client.Name())

	stitcher := NewStitcher(e.log)

	for start := 0; start < len(pages); start += e.cfg.PageBatchSize {
		end := start + e.cfg.PageBatchSize
		if end > len(pages) {
			end = len(pages)
		}
		batch := pages[start:end]

		// One rendering per page, shared by the prompt and the stitcher
		// so fingerprints always resolve against what the model saw.
		contents := make(map[int]string, len(batch))
		numbers := make([]int, 0, len(batch))
		for _, p := range batch {
			contents[p.Number] = e.renderPage(p)
			numbers = append(numbers, p.Number)
		}

		events, err := e.eventsForBatch(ctx, numbers, contents, stitcher.OpenBlocks())
		if err != nil {
			return nil, fmt.Errorf("batch pages %d-%d: %w", numbers[0], numbers[len(numbers)-1], err)
		}

		byPage := make(map[int][]llm.Event, len(numbers))
		for _, ev := range events {
			byPage[ev.PageNumber] = append(byPage[ev.PageNumber], ev)
		}
		for _, n := range numbers {
			stitcher.ProcessPage(byPage[n], contents[n], n)
		}
	}

	blocks := stitcher.Finalize()
	chunks := Assemble(blocks, sourceDocument)

	e.log.Info("document processed",
		"source", sourceDocument, "blocks", len(blocks), "chunks", len(chunks))
	return chunks, nil
}

// ProcessPagewise exists so callers migrating from page-at-a-time flows
// get a deliberate error instead of silently degraded stitching.
func (e *Engine) ProcessPagewise(ctx context.Context, pages []document.Page, sourceDocument string) ([]document.Chunk, error) {
	return nil, ErrPagewiseUnsupported
}

func (e *Engine) renderPage(p document.Page) string {
	if e.cfg.UseLayoutAnalysis {
		return markup.Render(p)
	}
	return p.Text
}

// eventsForBatch calls the model until it produces a valid batch or the
// attempt budget runs out. Validation failures feed a growing list of
// corrective instructions into the next prompt; malformed responses are
// retried without corrections since there is nothing semantic to fix.
func (e *Engine) eventsForBatch(ctx context.Context, pages []int, contents map[int]string, openBlocks []BlockSummary) ([]llm.Event, error) {
	sort.Ints(pages)

	var corrections []string
	var lastErr error

	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		prompt := BuildBatchPrompt(pages, contents, openBlocks, corrections)
		e.log.Debug("requesting events",
			"pages", pages, "attempt", attempt, "prompt_tokens_est", estimateTokens(prompt))

		raw, err := e.client.Complete(ctx, SystemPrompt(), prompt, llm.GenerationParams{
			MaxTokens:   e.cfg.MaxTokens,
			Temperature: e.cfg.Temperature,
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			lastErr = err
			e.log.Warn("model call failed", "attempt", attempt, "error", err)
			continue
		}

		batch, err := llm.DecodeEventBatch(raw)
		if err != nil {
			lastErr = err
			e.log.Warn("malformed event batch", "attempt", attempt, "error", err)
			continue
		}

		if err := ValidateEvents(batch.Events, contents); err != nil {
			lastErr = err
			if c := correctionFor(err); c != "" {
				corrections = append(corrections, c)
			}
			e.log.Warn("event batch failed validation", "attempt", attempt, "error", err)
			continue
		}

		return batch.Events, nil
	}

	return nil, fmt.Errorf("no valid event batch after %d attempts: %w", e.cfg.MaxAttempts, lastErr)
}

// correctionFor turns a validation error into an instruction the model
// can act on in the next attempt.
func correctionFor(err error) string {
	var pageErr *PageNumberError
	if errors.As(err, &pageErr) {
		return fmt.Sprintf(
			"You referenced page numbers %v which are not in this request. Only use page numbers between %d and %d.",
			pageErr.InvalidPages, pageErr.ValidMin, pageErr.ValidMax)
	}

	var fpErr *FingerprintError
	if errors.As(err, &fpErr) {
		parts := make([]string, 0, len(fpErr.Missing))
		for _, m := range fpErr.Missing {
			parts = append(parts, fmt.Sprintf("%q (claimed on page %d)", m.Fingerprint, m.PageNumber))
		}
		return "These fingerprints do not appear in the page text: " + strings.Join(parts, ", ") +
			". Copy fingerprints verbatim from the page text, character for character."
	}
	return ""
}
