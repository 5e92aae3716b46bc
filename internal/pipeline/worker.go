package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/docstitch/docstitch/internal/engine"
	"github.com/docstitch/docstitch/internal/parser"
)

// Worker processes a single document job.
type Worker struct {
	engine      *engine.Engine
	log         *slog.Logger
	pdfFallback bool
}

func NewWorker(eng *engine.Engine, log *slog.Logger, pdfFallback bool) *Worker {
	return &Worker{
		engine:      eng,
		log:         log,
		pdfFallback: pdfFallback,
	}
}

// Process runs the full conversion pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	if pdf, ok := p.(*parser.PDFParser); ok {
		pdf.FallbackPdftotext = w.pdfFallback
	}

	data := job.FileData()
	pages, err := p.Parse(bytes.NewReader(data), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	if len(pages) == 0 {
		log.Warn("no pages produced")
		job.AddError("no extractable content")
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	job.SetTotalPages(len(pages))

	// Hash the parsed text so reuploads of the same content are visible
	// to callers comparing job records.
	var textHash bytes.Buffer
	for _, pg := range pages {
		textHash.WriteString(pg.Text)
		textHash.WriteByte('\n')
	}
	job.ContentHash = ContentHashHex(textHash.Bytes())

	// Phase 2: Chunk via the model-driven engine.
	job.SetStatus(StatusChunking, "chunking")
	chunks, err := w.engine.ProcessPages(ctx, pages, job.Filename)
	if err != nil {
		log.Error("chunking failed", "error", err)
		job.AddError(fmt.Sprintf("chunk: %s", err))
		job.SetStatus(StatusFailed, "chunking")
		return
	}

	job.SetResult(chunks)
	log.Info("job complete", "pages", len(pages), "chunks", len(chunks))
	job.SetStatus(StatusCompleted, "done")
}
