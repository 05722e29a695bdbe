// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	sketchdex "github.com/poiesic/sketchdex"
	"github.com/poiesic/sketchdex/ai"
	"github.com/poiesic/sketchdex/config"
	"github.com/poiesic/sketchdex/core"
	"github.com/poiesic/sketchdex/ingestion"
	"github.com/poiesic/sketchdex/jobs"
	"github.com/poiesic/sketchdex/search"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "sketchdex",
		Usage: "Sketch-to-page visual search over PDF documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Index every PDF under a root directory",
				ArgsUsage: "<root-path>",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Reindex documents even when their content is unchanged",
					},
					&cli.IntFlag{
						Name:  "dpi",
						Usage: "Render resolution for page images",
						Value: 96,
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search indexed pages with a sketch image",
				ArgsUsage: "<sketch-image>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "text",
						Aliases: []string{"t"},
						Usage:   "Optional text query to boost matching pages",
					},
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Search mode: fast or accurate",
						Value: "fast",
					},
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of results to return",
						Value:   10,
					},
				},
			},
			{
				Name:  "documents",
				Usage: "Manage the document catalog",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List catalog documents in insertion order",
						Action: listCommand,
					},
					{
						Name:      "remove",
						Usage:     "Remove documents and their index entries",
						ArgsUsage: "<doc-id>...",
						Action:    removeCommand,
					},
				},
			},
			{
				Name:   "health",
				Usage:  "Report model and index status",
				Action: healthCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// openEngine builds an Engine from the resolved application config.
func openEngine(c *cli.Context) (*sketchdex.Engine, *config.AppConfig, error) {
	var (
		cfg *config.AppConfig
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, _, err = config.LoadDefault()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	aiCfg := ai.NewConfig(
		ai.WithFastHost(cfg.Models.FastHost),
		ai.WithAccurateHost(cfg.Models.AccurateHost),
		ai.WithFastModel(cfg.Models.FastModel),
		ai.WithAccurateModel(cfg.Models.AccurateModel),
	)

	engine, err := sketchdex.NewEngine(cfg.DataDir, sketchdex.WithAIConfig(aiCfg))
	if err != nil {
		return nil, nil, fmt.Errorf("opening engine: %w", err)
	}
	return engine, cfg, nil
}

func ingestCommand(c *cli.Context) error {
	root := c.Args().First()
	if root == "" {
		return fmt.Errorf("root path is required")
	}

	engine, cfg, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	rasterizer, err := newPopplerRasterizer(c.Int("dpi"))
	if err != nil {
		return err
	}

	pipeline, err := engine.NewIngestionPipeline(rasterizer,
		ingestion.WithPoolSize(cfg.Ingest.PoolSize),
		ingestion.WithRetry(cfg.Ingest.MaxRetries, time.Duration(cfg.Ingest.RetryDelayMS)*time.Millisecond),
		ingestion.WithMaxPagesPerDoc(cfg.Ingest.MaxPagesPerDoc),
	)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	jobID := pipeline.Start(root, c.Bool("force"))
	fmt.Printf("Job %s started\n", jobID)

	// The engine is per-process here, so the CLI polls its own tracker
	// until the job reaches a terminal state.
	for {
		time.Sleep(500 * time.Millisecond)
		snap, err := engine.Tracker().Get(jobID)
		if err != nil {
			return err
		}

		eta := "-"
		if snap.ETASeconds != nil {
			eta = fmt.Sprintf("%.0fs", *snap.ETASeconds)
		}
		fmt.Printf("\r%-9s docs %d/%d  pages %d/%d  failed %d  eta %s   ",
			snap.Status, snap.DocsDone, snap.DocsTotal,
			snap.PagesDone, snap.PagesTotal, snap.FailedPages, eta)

		if snap.Status == jobs.StatusCompleted || snap.Status == jobs.StatusFailed {
			fmt.Println()
			if snap.Status == jobs.StatusFailed {
				return fmt.Errorf("ingest failed: %s", snap.Error)
			}
			return nil
		}
	}
}

func searchCommand(c *cli.Context) error {
	sketchPath := c.Args().First()
	if sketchPath == "" {
		return fmt.Errorf("sketch image path is required")
	}
	sketch, err := os.ReadFile(sketchPath)
	if err != nil {
		return fmt.Errorf("reading sketch: %w", err)
	}

	engine, cfg, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	searcher, err := engine.NewSearcher(
		search.WithWeights(cfg.Search.VectorWeight, cfg.Search.LexicalWeight),
		search.WithCandidateMultiplier(cfg.Search.CandidateMultiplier),
	)
	if err != nil {
		return err
	}

	resp, err := searcher.Search(context.Background(), &core.SearchQuery{
		Sketch: sketch,
		Text:   c.String("text"),
		Mode:   core.SearchMode(c.String("mode")),
		TopK:   c.Int("top-k"),
	})
	if err != nil {
		return err
	}

	if resp.Degraded {
		fmt.Fprintln(os.Stderr, "warning: accurate model unavailable, results are fast-stage only")
	}
	if len(resp.Results) == 0 {
		fmt.Printf("No results (%d pages indexed, %d ms)\n", resp.TotalIndexedPages, resp.QueryTimeMS)
		return nil
	}

	for i, r := range resp.Results {
		fmt.Printf("%2d. %-40s page %-4d score %.4f  [%s]\n",
			i+1, r.DocName, r.PageNum, r.Score, r.Stage)
	}
	fmt.Printf("%d results over %d indexed pages in %d ms\n",
		len(resp.Results), resp.TotalIndexedPages, resp.QueryTimeMS)
	return nil
}

func listCommand(c *cli.Context) error {
	engine, _, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	docs, err := engine.DocumentRepository().ListDocuments(context.Background())
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("Catalog is empty")
		return nil
	}

	for _, doc := range docs {
		fmt.Printf("%-20d %-40s %4d pages  %s\n", doc.Id, doc.DisplayName, doc.PageCount, doc.Path)
	}
	return nil
}

func removeCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one document id is required")
	}

	ids := make([]core.ID, 0, c.NArg())
	for _, arg := range c.Args().Slice() {
		id, err := strconv.ParseUint(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid document id %q: %w", arg, err)
		}
		ids = append(ids, core.ID(id))
	}

	engine, _, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	count, err := engine.RemoveDocuments(context.Background(), ids...)
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d document(s)\n", count)
	return nil
}

func healthCommand(c *cli.Context) error {
	engine, _, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	h := engine.Health()
	fmt.Printf("fast model loaded:     %v\n", h.FastModelLoaded)
	fmt.Printf("accurate model loaded: %v\n", h.AccurateModelLoaded)
	fmt.Printf("indexed pages:         %d\n", h.IndexedPages)
	fmt.Printf("index size bytes:      %d\n", h.IndexSizeBytes)
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
