package item

import (
	"fmt"
	"strings"
)

// Metadata namespaces requested from openHAB.
const (
	namespaceSemantics = "semantics"
	namespaceSynonyms  = "synonyms"
)

// RawItem is one record of the openHAB /rest/items response.
type RawItem struct {
	Name       string                 `json:"name"`
	Label      string                 `json:"label,omitempty"`
	Type       string                 `json:"type"`
	Tags       []string               `json:"tags,omitempty"`
	GroupNames []string               `json:"groupNames,omitempty"`
	Metadata   map[string]RawMetadata `json:"metadata,omitempty"`
}

// RawMetadata is one metadata namespace of a raw record.
type RawMetadata struct {
	Value  string         `json:"value"`
	Config map[string]any `json:"config,omitempty"`
}

// toItem maps a raw record into an Item. The Location flag is set by the Store.
func (r RawItem) toItem() (*Item, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: missing name", ErrInvalidRecord)
	}
	if strings.TrimSpace(r.Type) == "" {
		return nil, fmt.Errorf("%w: %s: missing type", ErrInvalidRecord, name)
	}

	it := &Item{
		Name:       name,
		Label:      strings.ToLower(strings.TrimSpace(r.Label)),
		Type:       r.Type,
		Tags:       r.Tags,
		GroupNames: r.GroupNames,
	}

	if sem, ok := r.Metadata[namespaceSemantics]; ok {
		it.Semantics = sem.Value
		it.HasLocation = configString(sem.Config, "hasLocation")
		it.RelatesTo = configString(sem.Config, "relatesTo")
		it.IsPartOf = configString(sem.Config, "isPartOf")
		it.IsPointOf = configString(sem.Config, "isPointOf")
	}

	if syn, ok := r.Metadata[namespaceSynonyms]; ok {
		it.Synonyms = splitSynonyms(syn.Value)
	}

	return it, nil
}

// configString returns a string config value, or "" when absent or not a string.
func configString(cfg map[string]any, key string) string {
	if v, ok := cfg[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// splitSynonyms parses a comma-separated list into trimmed, lower-cased,
// unique entries.
func splitSynonyms(value string) []string {
	var out []string
	for _, s := range strings.Split(value, ",") {
		s = normalize(s)
		if s == "" || containsString(out, s) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
