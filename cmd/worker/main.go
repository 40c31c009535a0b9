package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"paper-rag/internal/app"
	"paper-rag/internal/arxiv"
	"paper-rag/internal/cache"
	"paper-rag/internal/httputil"
	"paper-rag/internal/ingest"
	"paper-rag/internal/queue"
)

type ingester interface {
	Ingest(ctx context.Context, src ingest.Source) (ingest.Result, error)
}

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer deps.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := deps.Store.EnsureSchema(ctx); err != nil {
		deps.Log.Error("failed to prepare store schema", "err", err)
		os.Exit(1)
	}
	pipeline, err := deps.Pipeline()
	if err != nil {
		deps.Log.Error("invalid ingestion config", "err", err)
		os.Exit(1)
	}
	q, err := deps.Queue()
	if err != nil {
		deps.Log.Error("failed to connect queue", "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := q.Close(); err != nil {
			deps.Log.Warn("failed to close queue", "err", err)
		}
	}()
	deps.Log.Info("ingest worker starting")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return q.Worker(ctx, queue.TaskTypeIngest, func(ctx context.Context, task queue.Task) error {
			return handleIngest(ctx, deps.Log, pipeline, deps.Cache, task)
		})
	})

	g.Go(func() error {
		return httputil.ServeHealth(ctx, fmt.Sprintf(":%d", deps.Config.HealthPort), deps.Log)
	})

	if err := g.Wait(); err != nil {
		deps.Log.Error("ingest worker stopped", "err", err)
	}
}

// handleIngest ingests the paper carried by task. Papers without text are
// dropped rather than retried. Cached answers are flushed after new content
// lands.
func handleIngest(ctx context.Context, log *slog.Logger, p ingester, c cache.Cache, task queue.Task) error {
	var paper arxiv.Paper
	if err := task.Decode(&paper); err != nil {
		log.Error("dropping malformed task", "id", task.ID, "err", err)
		return nil
	}
	log = log.With("task_id", task.ID, "title", paper.Title)

	res, err := p.Ingest(ctx, ingest.FromArxiv(paper))
	if ingest.Skipped(err) {
		log.Warn("skipping paper", "err", err)
		return nil
	}
	if err != nil {
		return err
	}
	if err := c.Flush(ctx); err != nil {
		log.Warn("failed to flush answer cache", "err", err)
	}
	log.Info("paper ingested", "doc_id", res.DocID, "chunks", res.Chunks)
	return nil
}
