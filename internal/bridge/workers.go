package bridge

import (
	"context"
	"errors"

	"github.com/loglayer/loglayer/internal/events"
	"github.com/loglayer/loglayer/internal/layer"
	"github.com/loglayer/loglayer/internal/logx"
	"github.com/loglayer/loglayer/internal/pipeline"
	"github.com/loglayer/loglayer/internal/stats"
)

// runPipeline retires any running pipeline worker for e and starts a new
// one over processing/search, applying the result to e.sess and emitting
// pipeline_finished on success (spec.md §4.4/§4.7). A cancelled run emits
// nothing; an error emits operation_error and leaves e.sess's visible
// table unchanged (spec.md §7: "pipeline-failure: ... visibility unchanged
// from prior result").
func (b *Bridge) runPipeline(ctx context.Context, fileID string, e *entry, processing []layer.ProcessingLayer, search *pipeline.SearchConfig) {
	e.startWorker(ctx, "pipeline", func(wctx context.Context, self *workerHandle) {
		b.sink.Emit(events.OperationStarted{FileID: fileID, Op: "pipeline"})

		res, err := pipeline.Run(wctx, b.engine, e.sess.Path, processing, search)
		if !e.isActive(self) {
			return
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || wctx.Err() != nil {
				return
			}
			b.log.Log("warning", logx.Tagf("PIPELINE_ERROR", "file %s: %v", fileID, err))
			b.sink.Emit(events.OperationError{FileID: fileID, Op: "pipeline", Message: err.Error()})
			return
		}

		e.sess.ApplyPipelineResult(res)
		visible, matches := e.sess.Counts()
		b.sink.Emit(events.PipelineFinished{FileID: fileID, VisibleCount: visible, MatchCount: matches})
	})
}

// runStats retires any running stats worker for e and starts a new one
// over every layer with a queryable form (spec.md §4.6/§4.7).
func (b *Bridge) runStats(ctx context.Context, fileID string, e *entry, all []layer.Layer) {
	e.startWorker(ctx, "stats", func(wctx context.Context, self *workerHandle) {
		b.sink.Emit(events.OperationStarted{FileID: fileID, Op: "stats"})

		res, err := stats.Run(wctx, b.engine, e.sess.Path, e.sess.LineCount(), all)
		if !e.isActive(self) {
			return
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || wctx.Err() != nil {
				return
			}
			b.log.Log("warning", logx.Tagf("STATS_ERROR", "file %s: %v", fileID, err))
			b.sink.Emit(events.OperationError{FileID: fileID, Op: "stats", Message: err.Error()})
			return
		}

		b.sink.Emit(events.StatsFinished{FileID: fileID, Stats: res})
	})
}
