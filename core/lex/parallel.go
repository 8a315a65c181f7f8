package lex

import (
	"context"
	"sync"
)

// WorkerPool runs a fixed number of goroutines over an index-addressed job
// slice, writing each result back to its matching index. Adapted from the
// teacher's generic worker-pool pattern for S8's embarrassingly-parallel
// per-leaf inline parsing: every TextContent leaf in a document is
// independent, so leaves are farmed out across Workers goroutines instead
// of parsed one at a time.
type WorkerPool[J, R any] struct {
	Workers int
	Process func(context.Context, J) R
}

// NewWorkerPool builds a pool with the given concurrency and job function.
// A non-positive workers value is treated as 1.
func NewWorkerPool[J, R any](workers int, fn func(context.Context, J) R) *WorkerPool[J, R] {
	if workers <= 0 {
		workers = 1
	}
	return &WorkerPool[J, R]{Workers: workers, Process: fn}
}

// Run processes every job and returns results in the same order as jobs.
// Once ctx is cancelled no further jobs are dispatched; the result slots of
// jobs that were never dispatched keep R's zero value.
func (p *WorkerPool[J, R]) Run(ctx context.Context, jobs []J) []R {
	results := make([]R, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	indices := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < p.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indices {
				results[idx] = p.Process(ctx, jobs[idx])
			}
		}()
	}

	go func() {
		defer close(indices)
		for i := range jobs {
			select {
			case indices <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	return results
}

// ApplyInlineParsing is S8's entry point: it collects every TextContent
// leaf reachable from doc, parses each one's inline tree concurrently, and
// writes the result back in place. Verbatim body text is never visited —
// it is literal by construction.
func ApplyInlineParsing(ctx context.Context, doc *Document, workers int) {
	leaves := collectLeaves(doc)
	pool := NewWorkerPool(workers, func(_ context.Context, leaf *TextContent) *TextContent {
		parsed := ParseInlineLeaf(*leaf)
		return &parsed
	})
	results := pool.Run(ctx, leaves)
	for i, leaf := range leaves {
		if results[i] != nil {
			*leaf = *results[i]
		}
	}
}

// collectLeaves gathers pointers to every TextContent field in the tree,
// including the fields that live outside the Element/Walk graph: List
// items (ListItemNode is not an Element), Verbatim pair subjects, and
// annotations S7 moved onto an element's or the document's Annotations.
func collectLeaves(doc *Document) []*TextContent {
	var leaves []*TextContent
	if doc.Title != nil {
		leaves = append(leaves, doc.Title)
	}
	for _, ann := range doc.Annotations {
		leaves = append(leaves, collectFromChildren([]Element{ann})...)
	}
	leaves = append(leaves, collectFromChildren(doc.Children)...)
	return leaves
}

func collectFromChildren(children []Element) []*TextContent {
	var out []*TextContent
	for _, el := range children {
		for _, ann := range *el.AnnotationsSlot() {
			out = append(out, collectFromChildren([]Element{ann})...)
		}
		switch n := el.(type) {
		case *Session:
			out = append(out, &n.Title)
			out = append(out, collectFromChildren(n.Children)...)
		case *Definition:
			out = append(out, &n.Subject)
			out = append(out, collectFromChildren(n.Children)...)
		case *Paragraph:
			for i := range n.Lines {
				out = append(out, &n.Lines[i])
			}
		case *List:
			out = append(out, collectFromListItems(n.Items)...)
		case *Verbatim:
			for i := range n.Pairs {
				out = append(out, &n.Pairs[i].Subject)
			}
		case *Annotation:
			if n.Body != nil {
				if n.Body.Inline != nil {
					out = append(out, n.Body.Inline)
				}
				out = append(out, collectFromChildren(n.Body.Block)...)
			}
		}
	}
	return out
}

func collectFromListItems(items []*ListItemNode) []*TextContent {
	var out []*TextContent
	for _, item := range items {
		out = append(out, &item.Head)
		out = append(out, collectFromChildren(item.Children)...)
	}
	return out
}
