package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/loglayer/loglayer/internal/layer"
	"github.com/loglayer/loglayer/internal/substringengine"
)

// searchHitTimeout bounds the independent search-hit-set scan (spec.md
// §4.4: "search-hit computation has a bounded wait (e.g., 5 s) before being
// abandoned and treated as empty").
const searchHitTimeout = 5 * time.Second

// matchAllPattern stands in for "no Native layer restricts stage 0"; every
// line, including the empty one, matches it.
const matchAllPattern = ".*"

// Partition splits processing layers by stage into order-preserving Native
// and Logic lists (spec.md §4.4 step 1), skipping disabled layers. Exported
// so the Stats Worker can build the same per-layer cumulative prefix the
// Pipeline Worker would.
func Partition(processing []layer.ProcessingLayer) (native, logic []layer.ProcessingLayer) {
	for _, l := range processing {
		if !l.Enabled() {
			continue
		}
		switch l.Stage() {
		case layer.Native:
			native = append(native, l)
		case layer.Logic:
			logic = append(logic, l)
		}
	}
	return native, logic
}

// OpenStream builds the Native-stage visibility chain (step 3) standalone,
// for callers (the Stats Worker) that need per-row content rather than
// just the final visible/match tables.
func OpenStream(ctx context.Context, engine substringengine.Engine, path string, native []layer.ProcessingLayer) (substringengine.Stream, error) {
	return buildVisibilityChain(ctx, engine, path, native)
}

// NewLogicRuns returns one fresh LogicRun per logic layer, for a single run.
func NewLogicRuns(logic []layer.ProcessingLayer) []layer.LogicRun {
	runs := make([]layer.LogicRun, len(logic))
	for i, l := range logic {
		runs[i] = l.NewRun()
	}
	return runs
}

// ApplyLogic cascades every logic layer's Process over content, then
// evaluates every layer's Filter against the content its own Process
// produced (step 4a), short-circuiting on the first rejection.
func ApplyLogic(runs []layer.LogicRun, content string) (final string, keep bool) {
	contents := make([]string, len(runs))
	cur := content
	for i, r := range runs {
		cur = r.Process(cur)
		contents[i] = cur
	}
	for i, r := range runs {
		if !r.Filter(contents[i]) {
			return cur, false
		}
	}
	return cur, true
}

// Run executes the Pipeline Worker algorithm (spec.md §4.4, design-level
// steps 1-5). ctx governs the whole run; cancellation at any suspension
// point returns a non-nil error with no partial result (step 5: "on
// cancellation no emission occurs").
func Run(ctx context.Context, engine substringengine.Engine, path string, processing []layer.ProcessingLayer, search *SearchConfig) (*Result, error) {
	native, logic := Partition(processing)

	hits, err := computeSearchHits(ctx, engine, path, search, searchHitTimeout)
	if err != nil {
		return nil, err
	}

	if len(native) == 0 && len(logic) == 0 {
		if search == nil || search.Query == "" {
			return &Result{}, nil
		}
		sorted := make([]int, 0, len(hits))
		for phys := range hits {
			sorted = append(sorted, phys)
		}
		sort.Ints(sorted)
		return &Result{VisibleIndices: nil, SearchMatches: sorted}, nil
	}

	stream, err := buildVisibilityChain(ctx, engine, path, native)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	runs := make([]layer.LogicRun, len(logic))
	for i, l := range logic {
		runs[i] = l.NewRun()
	}
	contents := make([]string, len(runs))

	var visible, matches []int
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		line, ok, err := stream.Next()
		if err != nil {
			return nil, fmt.Errorf("pipeline stream: %w", err)
		}
		if !ok {
			break
		}

		cur := line.Content
		for i, r := range runs {
			cur = r.Process(cur)
			contents[i] = cur
		}
		keep := true
		for i, r := range runs {
			if !r.Filter(contents[i]) {
				keep = false
				break
			}
		}
		if !keep {
			continue
		}

		phys := line.Number - 1
		v := len(visible)
		visible = append(visible, phys)
		if _, isHit := hits[phys]; isHit {
			matches = append(matches, v)
		}
	}

	return &Result{VisibleIndices: visible, SearchMatches: matches}, nil
}

// buildVisibilityChain realizes spec.md §4.4 step 3: stage 0 is either N₁'s
// SE invocation (line numbers enabled) or a match-all scan; stages 1..k-1
// chain N₂…Nk over the running stream, preserving physical line numbers.
func buildVisibilityChain(ctx context.Context, engine substringengine.Engine, path string, native []layer.ProcessingLayer) (substringengine.Stream, error) {
	var stream substringengine.Stream
	var err error
	if len(native) == 0 {
		stream, err = engine.Open(ctx, path, matchAllPattern, substringengine.Flags{Regex: true})
	} else {
		pattern, flags := native[0].CompileNative()
		stream, err = engine.Open(ctx, path, pattern, flags)
	}
	if err != nil {
		return nil, fmt.Errorf("open stage 0: %w", err)
	}

	if len(native) > 1 {
		for _, l := range native[1:] {
			pattern, flags := l.CompileNative()
			stream, err = engine.Chain(ctx, stream, pattern, flags)
			if err != nil {
				return nil, fmt.Errorf("chain native stage: %w", err)
			}
		}
	}
	return stream, nil
}

// computeSearchHits runs the independent search-hit-set scan (step 2). A
// bounded-wait timeout is treated as an empty result, not an error; actual
// parent cancellation propagates as an error so the caller can distinguish
// "search gave up" from "the whole pipeline run was cancelled".
func computeSearchHits(ctx context.Context, engine substringengine.Engine, path string, search *SearchConfig, timeout time.Duration) (map[int]struct{}, error) {
	if search == nil || search.Query == "" {
		return nil, nil
	}

	hctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	flags := substringengine.Flags{
		Regex:      search.IsRegex,
		IgnoreCase: !search.CaseSensitive,
		WholeWord:  search.WholeWord,
	}
	stream, err := engine.Open(hctx, path, search.Query, flags)
	if err != nil {
		return nil, fmt.Errorf("search hit scan: %w", err)
	}
	defer stream.Close()

	hits := make(map[int]struct{})
	for {
		line, ok, nextErr := stream.Next()
		if nextErr != nil {
			if hctx.Err() != nil && ctx.Err() == nil {
				return map[int]struct{}{}, nil
			}
			return nil, fmt.Errorf("search hit scan: %w", nextErr)
		}
		if !ok {
			break
		}
		hits[line.Number-1] = struct{}{}
	}
	return hits, nil
}
