package engine

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/docstitch/docstitch/internal/llm"
	"github.com/google/uuid"
)

// ActiveBlock is an open structural unit on the stitcher's stack. It is
// owned exclusively by the stack while open; its text grows append-only
// as pages are processed.
type ActiveBlock struct {
	ID              string
	Level           string
	Title           string
	StartPage       int
	ParentHierarchy []string

	text strings.Builder
}

func (b *ActiveBlock) append(s string) {
	if s != "" {
		b.text.WriteString(s)
	}
}

// Text returns the accumulated text so far.
func (b *ActiveBlock) Text() string { return b.text.String() }

// CompletedBlock is the immutable record of a closed block.
type CompletedBlock struct {
	ID              string
	Level           string
	Title           string
	Text            string
	StartPage       int
	EndPage         int
	ParentHierarchy []string
}

// BlockSummary is the open-block view serialized into prompts: enough
// for the model to know what is open, without the accumulated text.
type BlockSummary struct {
	Level           string   `json:"level"`
	Title           string   `json:"title,omitempty"`
	StartPage       int      `json:"start_page"`
	ParentHierarchy []string `json:"parent_hierarchy"`
}

// Stitcher maintains the stack of open blocks and the list of completed
// blocks while pages are processed in order. One stitcher serves exactly
// one document run; it is not safe for concurrent use.
type Stitcher struct {
	stack     []*ActiveBlock
	completed []CompletedBlock
	log       *slog.Logger
}

func NewStitcher(log *slog.Logger) *Stitcher {
	if log == nil {
		log = slog.Default()
	}
	return &Stitcher{log: log}
}

// StackDepth returns the number of open blocks.
func (s *Stitcher) StackDepth() int { return len(s.stack) }

// Completed returns the completed blocks accumulated so far.
func (s *Stitcher) Completed() []CompletedBlock { return s.completed }

// OpenBlocks returns prompt-ready summaries of the open stack, bottom
// to top.
func (s *Stitcher) OpenBlocks() []BlockSummary {
	out := make([]BlockSummary, 0, len(s.stack))
	for _, b := range s.stack {
		out = append(out, BlockSummary{
			Level:           b.Level,
			Title:           b.Title,
			StartPage:       b.StartPage,
			ParentHierarchy: append([]string(nil), b.ParentHierarchy...),
		})
	}
	return out
}

// anchored is an event whose fingerprint resolved to a span in the page.
type anchored struct {
	ev   llm.Event
	span Span
}

// ProcessPage consumes one page's events against that page's text.
// Events must already be validated for page membership; unresolvable or
// empty fingerprints are dropped here with a warning rather than
// failing the page.
func (s *Stitcher) ProcessPage(events []llm.Event, pageText string, pageNumber int) {
	s.log.Debug("processing page", "page", pageNumber, "events", len(events), "depth", len(s.stack))

	anchors := s.resolveAnchors(events, pageText, pageNumber)

	// Position-in-page order; stable so duplicate offsets keep the
	// model's original event order.
	sort.SliceStable(anchors, func(i, j int) bool {
		return anchors[i].span.Start < anchors[j].span.Start
	})

	cursor := 0
	for i, a := range anchors {
		switch a.ev.Kind {
		case llm.EventStarts:
			// Text before the new block belongs to whatever was open.
			if top := s.top(); top != nil && a.span.Start > cursor {
				top.append(pageText[cursor:a.span.Start])
			}
			s.push(a.ev, pageNumber, pageText[a.span.Start:a.span.End])
			cursor = a.span.End

		case llm.EventEnds:
			top := s.top()
			if top == nil {
				s.log.Warn("ENDS event with no open block, dropping",
					"page", pageNumber, "level", a.ev.Level, "fingerprint", a.ev.Fingerprint)
				continue
			}
			// The ENDS anchor is inclusive: it is the last text of the
			// closing block.
			if a.span.End > cursor {
				top.append(pageText[cursor:a.span.End])
				cursor = a.span.End
			}
			// Text stranded between this close and the next open would
			// otherwise land in the parent block; reclaim it for the
			// block being closed.
			if i+1 < len(anchors) && anchors[i+1].ev.Kind == llm.EventStarts {
				next := anchors[i+1].span.Start
				if next > cursor {
					gap := pageText[cursor:next]
					if strings.TrimSpace(gap) != "" {
						s.log.Warn("recovering text stranded between ENDS and STARTS",
							"page", pageNumber, "chars", len(gap))
						top.append(gap)
					} else {
						top.append(gap)
					}
					cursor = next
				}
			}
			s.pop(pageNumber)
		}
	}

	// Trailing page text continues the (possibly new) top block.
	if top := s.top(); top != nil && cursor < len(pageText) {
		top.append(pageText[cursor:])
	} else if top == nil && strings.TrimSpace(pageText[min(cursor, len(pageText)):]) != "" {
		s.log.Debug("page text outside any open block dropped", "page", pageNumber)
	}
}

// resolveAnchors locates the fingerprints of STARTS/ENDS events.
// CONTINUATION events need no anchor and cause no state change.
func (s *Stitcher) resolveAnchors(events []llm.Event, pageText string, pageNumber int) []anchored {
	anchors := make([]anchored, 0, len(events))
	for _, ev := range events {
		if ev.Kind == llm.EventContinuation {
			continue
		}
		fp := strings.TrimSpace(ev.Fingerprint)
		if fp == "" {
			s.log.Warn("anchor event without fingerprint, dropping",
				"page", pageNumber, "kind", ev.Kind, "level", ev.Level)
			continue
		}
		span, ok := Locate(pageText, fp)
		if !ok {
			s.log.Warn("fingerprint not found in page text, dropping event",
				"page", pageNumber, "kind", ev.Kind, "fingerprint", fp)
			continue
		}
		anchors = append(anchors, anchored{ev: ev, span: span})
	}
	return anchors
}

func (s *Stitcher) top() *ActiveBlock {
	if len(s.stack) == 0 {
		return nil
	}
	return s.stack[len(s.stack)-1]
}

// push opens a new block. The parent hierarchy is a snapshot of the
// titled blocks currently open, not a live reference.
func (s *Stitcher) push(ev llm.Event, pageNumber int, anchorText string) {
	var parents []string
	for _, b := range s.stack {
		if b.Title != "" {
			parents = append(parents, b.Title)
		}
	}

	blk := &ActiveBlock{
		ID:              uuid.NewString(),
		Level:           ev.Level,
		Title:           ev.Title,
		StartPage:       pageNumber,
		ParentHierarchy: parents,
	}
	// Seed with the anchor so the boundary text lands in the new block.
	blk.append(anchorText)
	s.stack = append(s.stack, blk)
	s.log.Debug("block opened", "level", ev.Level, "title", ev.Title, "page", pageNumber, "depth", len(s.stack))
}

func (s *Stitcher) pop(endPage int) {
	blk := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	s.completed = append(s.completed, CompletedBlock{
		ID:              blk.ID,
		Level:           blk.Level,
		Title:           blk.Title,
		Text:            blk.Text(),
		StartPage:       blk.StartPage,
		EndPage:         endPage,
		ParentHierarchy: blk.ParentHierarchy,
	})
	s.log.Debug("block closed", "level", blk.Level, "title", blk.Title, "end_page", endPage, "depth", len(s.stack))
}

// Finalize force-closes every block still open at end of document and
// returns the full completed list. Open blocks inherit the end page of
// the most recently completed block, or 1 when nothing ever closed.
func (s *Stitcher) Finalize() []CompletedBlock {
	for len(s.stack) > 0 {
		endPage := 1
		if n := len(s.completed); n > 0 {
			endPage = s.completed[n-1].EndPage
		}
		blk := s.top()
		s.log.Warn("force-closing block left open at end of document",
			"level", blk.Level, "title", blk.Title, "end_page", endPage)
		s.pop(endPage)
	}
	return s.completed
}
