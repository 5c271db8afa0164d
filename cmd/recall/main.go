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
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/recall"
	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/pipeline"
	"github.com/poiesic/recall/storage/badger"
)

func main() {
	// Optional .env file; real environment wins
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "recall",
		Usage: "Personalized daily intelligence digests from HN, Reddit, and RSS",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"RECALL_LOG_LEVEL"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Fetch new items and generate today's digest",
				Action: runCommand,
				Flags:  append(dbFlags(), aiFlags()...),
			},
			{
				Name:   "ingest",
				Usage:  "Fetch, deduplicate, and store new items without generating a digest",
				Action: ingestCommand,
				Flags:  append(dbFlags(), aiFlags()...),
			},
			{
				Name:   "generate",
				Usage:  "Generate a digest from already-stored items",
				Action: generateCommand,
				Flags:  append(dbFlags(), aiFlags()...),
			},
			{
				Name:  "prefs",
				Usage: "Inspect and change runtime preferences",
				Subcommands: []*cli.Command{
					{
						Name:      "get",
						Usage:     "Print one preference value",
						ArgsUsage: "<key>",
						Action:    prefsGetCommand,
						Flags:     dbFlags(),
					},
					{
						Name:      "set",
						Usage:     "Store a preference value",
						ArgsUsage: "<key> <value>",
						Action:    prefsSetCommand,
						Flags:     dbFlags(),
					},
					{
						Name:   "list",
						Usage:  "Print all stored preferences",
						Action: prefsListCommand,
						Flags:  dbFlags(),
					},
				},
			},
			{
				Name:   "digest",
				Usage:  "Print a stored digest",
				Action: digestShowCommand,
				Flags: append(dbFlags(),
					&cli.TimestampFlag{
						Name:   "date",
						Usage:  "Digest date (defaults to today)",
						Layout: time.DateOnly,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dbFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
			EnvVars:  []string{"RECALL_DB"},
		},
	}
}

func aiFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Usage:   "OpenAI-compatible service host URL for embeddings and scoring",
			Value:   "http://localhost:11434/v1",
			EnvVars: []string{"RECALL_AI_HOST"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			Value:   "all-minilm",
			EnvVars: []string{"RECALL_EMBEDDING_MODEL"},
		},
		&cli.StringFlag{
			Name:    "scorer-model",
			Usage:   "Scoring model name",
			Value:   "llama3.1",
			EnvVars: []string{"RECALL_SCORER_MODEL"},
		},
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Number of items per evaluation batch",
			Value: pipeline.DefaultBatchSize,
		},
		&cli.IntFlag{
			Name:  "max-concurrency",
			Usage: "Maximum concurrent scoring calls",
			Value: pipeline.DefaultMaxConcurrency,
		},
		&cli.IntFlag{
			Name:  "max-retries",
			Usage: "Maximum retry attempts for embedding calls",
			Value: 3,
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "Base delay for exponential backoff",
			Value: 1 * time.Second,
		},
	}
}

// openPipeline builds a Database and a configured pipeline from CLI flags.
func openPipeline(c *cli.Context) (*recall.Database, *pipeline.Pipeline, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithScorerModel(c.String("scorer-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	db, err := recall.NewDatabase(c.String("db"), recall.WithAIConfig(aiConfig))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	cfg := pipeline.DefaultConfig()
	cfg.BatchSize = c.Int("batch-size")
	cfg.MaxConcurrency = c.Int("max-concurrency")
	if cfg.BatchSize <= 0 {
		db.Close()
		return nil, nil, fmt.Errorf("batch-size must be greater than 0")
	}
	if cfg.MaxConcurrency <= 0 {
		db.Close()
		return nil, nil, fmt.Errorf("max-concurrency must be greater than 0")
	}

	p, err := db.NewPipeline(
		pipeline.WithConfig(cfg),
		pipeline.WithRetry(c.Int("max-retries"), c.Duration("retry-delay")),
	)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	return db, p, nil
}

func runCommand(c *cli.Context) error {
	ctx := context.Background()

	db, p, err := openPipeline(c)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "AI host: %s\n", c.String("host"))
	fmt.Fprintln(os.Stderr)

	digest, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("pipeline run failed: %w", err)
	}

	fmt.Println(digest.Markdown)
	return nil
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	db, p, err := openPipeline(c)
	if err != nil {
		return err
	}
	defer db.Close()

	cfg, err := p.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to snapshot configuration: %w", err)
	}

	_, stats, err := p.Ingest(ctx, &cfg)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Fetched:       %d\n", stats.Fetched)
	fmt.Fprintf(os.Stderr, "Saved:         %d\n", stats.Saved)
	fmt.Fprintf(os.Stderr, "Duplicates:    %d\n", stats.Duplicates)
	fmt.Fprintf(os.Stderr, "Irrelevant:    %d\n", stats.Irrelevant)
	fmt.Fprintf(os.Stderr, "Save failures: %d\n", stats.SaveFailures)
	return nil
}

func generateCommand(c *cli.Context) error {
	ctx := context.Background()

	db, p, err := openPipeline(c)
	if err != nil {
		return err
	}
	defer db.Close()

	cfg, err := p.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to snapshot configuration: %w", err)
	}

	digest, err := p.Generate(ctx, &cfg, nil)
	if err != nil {
		return fmt.Errorf("digest generation failed: %w", err)
	}

	fmt.Println(digest.Markdown)
	return nil
}

func prefsGetCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: prefs get <key>")
	}

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewPreferenceRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}

	value, err := repo.GetPreference(context.Background(), c.Args().Get(0), "")
	if err != nil {
		return err
	}
	fmt.Println(value)
	return nil
}

func prefsSetCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: prefs set <key> <value>")
	}

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewPreferenceRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}

	return repo.SetPreference(context.Background(), c.Args().Get(0), c.Args().Get(1))
}

func prefsListCommand(c *cli.Context) error {
	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewPreferenceRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}

	prefs, err := repo.AllPreferences(context.Background())
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(prefs))
	for key := range prefs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("%s=%s\n", key, prefs[key])
	}
	return nil
}

func digestShowCommand(c *cli.Context) error {
	date := time.Now().UTC()
	if ts := c.Timestamp("date"); ts != nil && !ts.IsZero() {
		date = *ts
	}

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewDigestRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}

	markdown, err := repo.GetDigest(context.Background(), date)
	if err != nil {
		return fmt.Errorf("no digest for %s: %w", date.Format(time.DateOnly), err)
	}

	fmt.Println(markdown)
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
