package stats

import (
	"context"
	"fmt"
	"sync"

	"github.com/samber/lo"

	"github.com/loglayer/loglayer/internal/layer"
	"github.com/loglayer/loglayer/internal/pipeline"
	"github.com/loglayer/loglayer/internal/substringengine"
)

// checkpointRows is how often each layer's scan checks ctx for
// cancellation, grounded on histogram.BuildFromStageResult's per-1000-row
// checkpoint.
const checkpointRows = 1000

// Run computes one Entry per entry in layers, in the order given (spec.md
// §4.6). A layer's Count and Distribution are measured against the rows
// that survive every enabled Processing layer strictly ahead of it in the
// list: a layer never narrows its own prefix, and Rendering layers never
// appear in anyone's prefix. A layer with no queryable form — it doesn't
// implement layer.StatsQueryable — contributes a zero Entry.
//
// totalLines is the file's physical line count, used to place each match
// into one of Buckets evenly-sized spans. Every layer's prefix is
// independent of every other layer's, so entries are computed
// concurrently; ctx cancellation aborts the whole run.
func Run(ctx context.Context, engine substringengine.Engine, path string, totalLines int, layers []layer.Layer) (Result, error) {
	entries := make([]Entry, len(layers))
	errs := make([]error, len(layers))

	var wg sync.WaitGroup
	for i := range layers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entries[i], errs[i] = layerEntry(ctx, engine, path, totalLines, layers, i)
		}(i)
	}
	wg.Wait()

	out := make(Result, len(layers))
	for i, l := range layers {
		if errs[i] != nil {
			return nil, fmt.Errorf("layer %s: %w", l.ID(), errs[i])
		}
		out[l.ID()] = entries[i]
	}
	return out, nil
}

func layerEntry(ctx context.Context, engine substringengine.Engine, path string, totalLines int, layers []layer.Layer, idx int) (Entry, error) {
	target := layers[idx]
	queryable, ok := target.(layer.StatsQueryable)
	if !ok || !target.Enabled() {
		return Entry{}, nil
	}

	native, logic := pipeline.Partition(processingPrefix(layers[:idx]))

	stream, err := pipeline.OpenStream(ctx, engine, path, native)
	if err != nil {
		return Entry{}, err
	}
	defer stream.Close()

	runs := pipeline.NewLogicRuns(logic)
	counts := make([]int, Buckets)

	var entry Entry
	for row := 0; ; row++ {
		if row%checkpointRows == 0 {
			select {
			case <-ctx.Done():
				return Entry{}, ctx.Err()
			default:
			}
		}

		line, ok, err := stream.Next()
		if err != nil {
			return Entry{}, fmt.Errorf("stats stream: %w", err)
		}
		if !ok {
			break
		}

		content, keep := pipeline.ApplyLogic(runs, line.Content)
		if !keep || !queryable.MatchesQuery(content) {
			continue
		}

		entry.Count++
		counts[bucketFor(line.Number-1, totalLines)]++
	}

	normalize(&entry, counts)
	return entry, nil
}

// processingPrefix narrows layers to the enabled Processing ones, preserving
// order. Rendering layers never gate visibility, so they never belong in
// any layer's cumulative prefix.
func processingPrefix(layers []layer.Layer) []layer.ProcessingLayer {
	var out []layer.ProcessingLayer
	for _, l := range layers {
		if p, ok := l.(layer.ProcessingLayer); ok && p.Enabled() {
			out = append(out, p)
		}
	}
	return out
}

func bucketFor(phys, totalLines int) int {
	if totalLines <= 0 {
		return 0
	}
	b := phys * Buckets / totalLines
	if b >= Buckets {
		b = Buckets - 1
	}
	if b < 0 {
		b = 0
	}
	return b
}

// normalize fills entry.Distribution with each bucket's share of the
// tallest bucket.
func normalize(entry *Entry, counts []int) {
	peak := lo.Max(counts)
	if peak == 0 {
		return
	}
	for i, c := range counts {
		entry.Distribution[i] = float64(c) / float64(peak)
	}
}
