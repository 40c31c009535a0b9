package main

import (
	"encoding/json"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"paper-rag/internal/app"
	"paper-rag/internal/config"
	"paper-rag/internal/logger"
)

// cli carries the resolved configuration shared by every subcommand.
type cli struct {
	cfg config.Config
	log *slog.Logger
	out io.Writer
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:          "ingest",
		Short:        "Fetch arXiv papers and load them into the paper store",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c.cfg = app.LoadConfig()
			applyOverrides(cmd, &c.cfg)
			c.log = logger.NewWithWriter(cmd.ErrOrStderr(), c.cfg.LogLevel)
			c.out = cmd.OutOrStdout()
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.String("query", "", "arXiv search query (default $ARXIV_QUERY)")
	pf.Int("max-results", 0, "number of papers to fetch (default $ARXIV_MAX_RESULTS)")
	pf.String("dir", "", "download directory (default $DOWNLOAD_DIR)")
	pf.String("store", "", "store provider: weaviate, postgres or memory")
	pf.String("strategy", "", "chunking strategy: sections or fixed")
	pf.Int("chunk-size", 0, "words per chunk")
	pf.Float64("overlap", 0, "fraction of a chunk shared with the next one")

	root.AddCommand(
		c.downloadCmd(),
		c.runCmd(),
		c.filesCmd(),
		c.enqueueCmd(),
		c.askCmd(),
	)
	return root
}

// applyOverrides copies explicitly set flags over the environment config.
func applyOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("query") {
		cfg.ArxivQuery, _ = flags.GetString("query")
	}
	if flags.Changed("max-results") {
		cfg.ArxivMaxResults, _ = flags.GetInt("max-results")
	}
	if flags.Changed("dir") {
		cfg.DownloadDir, _ = flags.GetString("dir")
	}
	if flags.Changed("store") {
		cfg.StoreProvider, _ = flags.GetString("store")
	}
	if flags.Changed("strategy") {
		cfg.ChunkStrategy, _ = flags.GetString("strategy")
	}
	if flags.Changed("chunk-size") {
		cfg.ChunkSize, _ = flags.GetInt("chunk-size")
	}
	if flags.Changed("overlap") {
		cfg.ChunkOverlapFraction, _ = flags.GetFloat64("overlap")
	}
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
