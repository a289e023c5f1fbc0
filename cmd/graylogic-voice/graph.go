package main

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/nerrad567/gray-logic-voice/internal/bridges/openhab"
	"github.com/nerrad567/gray-logic-voice/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-voice/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-voice/internal/item"
	"github.com/nerrad567/gray-logic-voice/internal/synonym"
)

// graph holds the current item Store. Readers call Store; Reload swaps in a
// freshly fetched snapshot.
type graph struct {
	client    *openhab.Client
	index     *synonym.Index
	model     item.Model
	recorders []item.Recorder
	logger    *logging.Logger

	current atomic.Pointer[item.Store]
}

func newGraph(cfg config.OpenHABConfig, recorders []item.Recorder, log *logging.Logger) (*graph, error) {
	client, err := openhab.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating openHAB client: %w", err)
	}
	index, err := loadIndex(cfg)
	if err != nil {
		return nil, err
	}
	return &graph{
		client:    client,
		index:     index,
		model:     item.Model(cfg.Containment),
		recorders: recorders,
		logger:    log,
	}, nil
}

// loadIndex reads the tag synonyms for the configured language, from
// tags_dir when set and from the embedded resources otherwise.
func loadIndex(cfg config.OpenHABConfig) (*synonym.Index, error) {
	var (
		index *synonym.Index
		err   error
	)
	if cfg.TagsDir != "" {
		index, err = synonym.LoadDir(cfg.TagsDir, cfg.Language)
	} else {
		index, err = synonym.Load(cfg.Language)
	}
	if err != nil {
		return nil, fmt.Errorf("loading tag synonyms: %w", err)
	}
	return index, nil
}

// Store returns the current snapshot, or nil before the first Reload.
func (g *graph) Store() *item.Store {
	return g.current.Load()
}

// Reload fetches a new snapshot. The previous one stays current on failure.
func (g *graph) Reload(ctx context.Context) error {
	store, err := item.Load(ctx, g.client, item.Options{
		Model:     g.model,
		Index:     g.index,
		Gateway:   g.client,
		Recorders: g.recorders,
		Logger:    g.logger.Component("item"),
	})
	if err != nil {
		return err
	}
	g.current.Store(store)
	return nil
}
