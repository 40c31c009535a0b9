package main

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"paper-rag/internal/app"
	"paper-rag/internal/arxiv"
	"paper-rag/internal/extract"
	"paper-rag/internal/ingest"
	"paper-rag/internal/llm"
	"paper-rag/internal/queue"
)

func (c *cli) downloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download",
		Short: "Search arXiv and download the matching PDFs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			papers, err := c.fetchPapers(cmd.Context())
			if err != nil {
				return err
			}
			return c.printJSON(papers)
		},
	}
}

func (c *cli) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Download papers and ingest them in process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			papers, err := c.fetchPapers(cmd.Context())
			if err != nil {
				return err
			}
			sources := make([]ingest.Source, 0, len(papers))
			for _, p := range papers {
				sources = append(sources, ingest.FromArxiv(p))
			}
			return c.ingest(cmd.Context(), sources)
		},
	}
}

func (c *cli) filesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "files",
		Short: "Ingest local documents (pdf, docx, html, md, txt) from --dir",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sources, err := localSources(c.cfg.DownloadDir)
			if err != nil {
				return err
			}
			c.log.Info("found local documents", "dir", c.cfg.DownloadDir, "count", len(sources))
			return c.ingest(cmd.Context(), sources)
		},
	}
}

func (c *cli) enqueueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue",
		Short: "Download papers and publish one ingest task per paper",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			papers, err := c.fetchPapers(ctx)
			if err != nil {
				return err
			}
			q, err := app.Deps{Config: c.cfg, Log: c.log}.Queue()
			if err != nil {
				return err
			}
			n, err := enqueuePapers(ctx, q, papers)
			if err != nil {
				return err
			}
			return c.printJSON(map[string]int{"enqueued": n})
		},
	}
}

func (c *cli) askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from the stored papers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := app.New(c.cfg)
			if err != nil {
				return err
			}
			defer deps.Close()
			answerer, err := deps.Answerer()
			if err != nil {
				return err
			}
			resp, err := answerer.Answer(cmd.Context(), []llm.Message{{Role: llm.RoleUser, Content: args[0]}})
			if err != nil {
				return err
			}
			return c.printJSON(resp)
		},
	}
}

func (c *cli) fetchPapers(ctx context.Context) ([]arxiv.Paper, error) {
	client := app.Deps{Config: c.cfg, Log: c.log}.Arxiv()
	papers, err := client.Search(ctx, c.cfg.ArxivQuery, c.cfg.ArxivMaxResults)
	if err != nil {
		return nil, err
	}
	c.log.Info("found papers", "query", c.cfg.ArxivQuery, "count", len(papers))
	return client.Download(ctx, papers, c.cfg.DownloadDir, c.cfg.DownloadConcurrency)
}

func (c *cli) ingest(ctx context.Context, sources []ingest.Source) error {
	deps, err := app.New(c.cfg)
	if err != nil {
		return err
	}
	defer deps.Close()
	deps.Log = c.log

	if err := deps.Store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("prepare schema: %w", err)
	}
	pipeline, err := deps.Pipeline()
	if err != nil {
		return err
	}
	sum, err := pipeline.Run(ctx, sources)
	if err != nil {
		return err
	}
	if sum.Ingested > 0 {
		if err := deps.Cache.Flush(ctx); err != nil {
			c.log.Warn("failed to flush answer cache", "err", err)
		}
	}
	return c.printJSON(sum)
}

// enqueuePapers publishes one ingest task per paper and returns how many
// were sent. q is closed before returning; a failed flush means none of the
// tasks can be counted as delivered.
func enqueuePapers(ctx context.Context, q queue.Queue, papers []arxiv.Paper) (n int, err error) {
	defer func() {
		if cerr := q.Close(); cerr != nil && err == nil {
			n, err = 0, cerr
		}
	}()
	for i, p := range papers {
		task, err := queue.NewTask(queue.TaskTypeIngest, p)
		if err != nil {
			return i, err
		}
		if err := queue.EnqueueWithRetry(ctx, q, task, 3, 200*time.Millisecond); err != nil {
			return i, fmt.Errorf("enqueue %q: %w", p.Title, err)
		}
	}
	return len(papers), nil
}

// localSources lists the supported documents under dir in lexical order.
func localSources(dir string) ([]ingest.Source, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && extract.Supported(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	slices.Sort(paths)

	sources := make([]ingest.Source, len(paths))
	for i, p := range paths {
		sources[i] = ingest.Source{FilePath: p}
	}
	return sources, nil
}
