package item

import (
	"context"
	"fmt"
	"strings"

	"github.com/nerrad567/gray-logic-voice/internal/synonym"
)

// Options configures Store construction.
type Options struct {
	// Model selects the containment model. Empty means semantic.
	Model Model

	// Index maps spoken words to semantic tags. Nil means an empty index.
	Index *synonym.Index

	// Gateway delivers commands and reads state. Optional for query-only use.
	Gateway Gateway

	// Attributes are external annotations for the alias model. When nil and
	// the alias model is selected, Load fetches them from the source.
	Attributes map[string][]Attribute

	// Recorders are told about every per-item command outcome.
	Recorders []Recorder

	Logger Logger
}

// Store owns the item graph, the synonym index and the command gateway.
type Store struct {
	items     []*Item
	byName    map[string]*Item
	index     *synonym.Index
	model     Model
	gateway   Gateway
	recorders []Recorder
	logger    Logger
}

// Load fetches a snapshot from src and builds a Store from it.
//
// A transport failure aborts construction and is returned wrapped in
// ErrGateway. Malformed records are logged and skipped.
//
// Parameters:
//   - ctx: Context for the snapshot requests
//   - src: Source of raw item records (usually the openHAB client)
//   - opts: Store options
//
// Returns:
//   - *Store: Store holding the snapshot
//   - error: ErrGateway, ErrNoAttributes or ErrInvalidModel
func Load(ctx context.Context, src Source, opts Options) (*Store, error) {
	model, err := ParseModel(string(opts.Model))
	if err != nil {
		return nil, err
	}

	records, err := src.FetchItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching items: %w", ErrGateway, err)
	}

	if model == ModelAlias && opts.Attributes == nil {
		attrSrc, ok := src.(AttributeSource)
		if !ok {
			return nil, ErrNoAttributes
		}
		attrs, err := attrSrc.FetchAttributes(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: fetching attributes: %w", ErrGateway, err)
		}
		opts.Attributes = attrs
	}

	return NewStore(records, opts)
}

// NewStore builds a Store from raw records in their given order.
func NewStore(records []RawItem, opts Options) (*Store, error) {
	model, err := ParseModel(string(opts.Model))
	if err != nil {
		return nil, err
	}

	s := &Store{
		items:     make([]*Item, 0, len(records)),
		byName:    make(map[string]*Item, len(records)),
		index:     opts.Index,
		model:     model,
		gateway:   opts.Gateway,
		recorders: opts.Recorders,
		logger:    opts.Logger,
	}
	if s.index == nil {
		s.index = synonym.New(nil)
	}
	if s.logger == nil {
		s.logger = noopLogger{}
	}

	for _, rec := range records {
		it, err := rec.toItem()
		if err != nil {
			s.logger.Warn("skipping item record", "error", err)
			continue
		}
		if _, exists := s.byName[it.Name]; exists {
			s.logger.Warn("skipping item record", "name", it.Name, "error", ErrDuplicateItem)
			continue
		}
		s.items = append(s.items, it)
		s.byName[it.Name] = it
	}

	if model == ModelAlias {
		s.applyAttributes(opts.Attributes)
	}
	s.flagLocations()
	s.linkPoints()

	s.logger.Info("item store built",
		"items", len(s.items),
		"skipped", len(records)-len(s.items),
		"model", string(model),
	)
	return s, nil
}

// applyAttributes merges alias synonyms and location flags into the graph.
func (s *Store) applyAttributes(attrs map[string][]Attribute) {
	for name, list := range attrs {
		it, ok := s.byName[name]
		if !ok {
			s.logger.Debug("attributes for unknown item", "name", name)
			continue
		}
		for _, a := range list {
			switch strings.ToLower(a.Type) {
			case AttributeAlias:
				if v := normalize(a.Value); v != "" && !it.HasSynonym(v) {
					it.Synonyms = append(it.Synonyms, v)
				}
			case AttributeLocation:
				if it.Type != TypeGroup {
					s.logger.Warn("location attribute on non-group item", "name", name)
					continue
				}
				if !strings.EqualFold(strings.TrimSpace(a.Value), "false") {
					it.Location = true
				}
			}
		}
	}
}

// flagLocations marks location items for the configured model.
func (s *Store) flagLocations() {
	var locationTags []string
	if s.model == ModelGroup {
		for _, tag := range s.index.TagNames() {
			if strings.HasPrefix(tag, ClassLocation) {
				locationTags = append(locationTags, tagSuffix(tag))
			}
		}
	}

	for _, it := range s.items {
		if strings.HasPrefix(it.Semantics, ClassLocation) {
			it.Location = true
			continue
		}
		if s.model != ModelGroup || it.Type != TypeGroup {
			continue
		}
		if it.HasTag(ClassLocation) {
			it.Location = true
			continue
		}
		for _, t := range locationTags {
			if it.HasTag(t) {
				it.Location = true
				break
			}
		}
	}
}

// linkPoints derives HasPoints from IsPointOf. Running it twice is a no-op.
func (s *Store) linkPoints() {
	for _, it := range s.items {
		if it.IsPointOf == "" {
			continue
		}
		target, ok := s.byName[it.IsPointOf]
		if !ok {
			s.logger.Warn("point of unknown equipment", "name", it.Name, "isPointOf", it.IsPointOf)
			continue
		}
		if !containsString(target.HasPoints, it.Name) {
			target.HasPoints = append(target.HasPoints, it.Name)
		}
	}
}

// Item returns the item with the given name.
func (s *Store) Item(name string) (*Item, bool) {
	it, ok := s.byName[name]
	return it, ok
}

// Items returns every item in load order.
func (s *Store) Items() []*Item {
	out := make([]*Item, len(s.items))
	copy(out, s.items)
	return out
}

// Locations returns every location item in load order.
func (s *Store) Locations() []*Item {
	out := make([]*Item, 0)
	for _, it := range s.items {
		if it.IsLocation() {
			out = append(out, it)
		}
	}
	return out
}

// Len returns the number of loaded items.
func (s *Store) Len() int {
	return len(s.items)
}

// Model returns the containment model in use.
func (s *Store) Model() Model {
	return s.model
}

// Index returns the synonym index.
func (s *Store) Index() *synonym.Index {
	return s.index
}

// tagSuffix returns the last segment of a semantic tag ("Equipment_Lightbulb" → "Lightbulb").
func tagSuffix(tag string) string {
	if i := strings.LastIndex(tag, "_"); i >= 0 {
		return tag[i+1:]
	}
	return tag
}
