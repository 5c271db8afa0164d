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


package recall

import (
	"log/slog"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/ai/openai"
	"github.com/poiesic/recall/fetch"
	"github.com/poiesic/recall/pipeline"
	"github.com/poiesic/recall/storage"
	"github.com/poiesic/recall/storage/badger"
)

type Database struct {
	backend    *badger.Backend
	itemRepo   storage.ItemRepository
	prefRepo   storage.PreferenceRepository
	digestRepo storage.DigestRepository
	provider   ai.AIProvider
	logger     *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	inMemory bool
}

// WithAIConfig sets the AI service configuration.
func WithAIConfig(cfg *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = cfg
	}
}

// WithInMemory opens the backing store in memory, discarded on close.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	// Apply options
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}
	// Open backend
	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	// Create item repository
	itemRepo, err := badger.NewItemRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	// Create preference repository
	prefRepo, err := badger.NewPreferenceRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	// Create digest repository
	digestRepo, err := badger.NewDigestRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	// Create AI provider with configured settings
	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Database{
		backend:    backend,
		itemRepo:   itemRepo,
		prefRepo:   prefRepo,
		digestRepo: digestRepo,
		provider:   provider,
		logger:     slog.Default(),
	}, nil
}

func (db *Database) Close() error {
	// Close AI provider first
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	// Close backend
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) ItemRepository() storage.ItemRepository {
	return db.itemRepo
}

func (db *Database) PreferenceRepository() storage.PreferenceRepository {
	return db.prefRepo
}

func (db *Database) DigestRepository() storage.DigestRepository {
	return db.digestRepo
}

// NewPipeline creates a selection pipeline over this database. Unless
// overridden through options, it fetches from the default adapter set.
func (db *Database) NewPipeline(opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	defaults := []pipeline.Option{
		pipeline.WithAdapters(DefaultAdapters()...),
	}
	return pipeline.NewPipeline(db.itemRepo, db.prefRepo, db.digestRepo, db.provider,
		append(defaults, opts...)...)
}

// DefaultAdapters returns one adapter per supported source, each with
// its built-in feed list.
func DefaultAdapters() []fetch.SourceAdapter {
	return []fetch.SourceAdapter{
		fetch.NewHackerNewsAdapter(),
		fetch.NewRedditAdapter(nil),
		fetch.NewRSSAdapter(nil),
	}
}
