package synonym

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/magiconair/properties"
)

//go:embed tags/*.properties
var embeddedTags embed.FS

// Index holds the forward and reverse tag/synonym maps.
type Index struct {
	tags    []string
	forward map[string][]string
	reverse map[string][]string
}

// New builds an Index from a tag → comma-separated synonyms map.
// Tags are processed in sorted order so reverse lookups are deterministic.
func New(entries map[string]string) *Index {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	idx := newIndex(len(keys))
	for _, k := range keys {
		idx.add(k, entries[k])
	}
	return idx
}

// FromProperties builds an Index from parsed properties, keeping file order.
func FromProperties(p *properties.Properties) *Index {
	keys := p.Keys()
	idx := newIndex(len(keys))
	for _, k := range keys {
		v, _ := p.Get(k)
		idx.add(k, v)
	}
	return idx
}

// Load returns the embedded Index for a language ("de", "en").
func Load(lang string) (*Index, error) {
	data, err := embeddedTags.ReadFile(resourceName(lang))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownLanguage, lang)
		}
		return nil, fmt.Errorf("reading embedded tags: %w", err)
	}
	return parse(data)
}

// LoadDir reads tags_<lang>.properties from dir.
func LoadDir(dir, lang string) (*Index, error) {
	path := filepath.Join(dir, filepath.Base(resourceName(lang)))
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q not found in %s", ErrUnknownLanguage, lang, dir)
		}
		return nil, fmt.Errorf("checking tags file: %w", err)
	}
	return LoadFile(path)
}

// LoadFile reads a properties file from disk.
func LoadFile(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tags file: %w", err)
	}
	return parse(data)
}

// Languages lists the embedded languages.
func Languages() []string {
	entries, err := embeddedTags.ReadDir("tags")
	if err != nil {
		return nil
	}
	langs := make([]string, 0, len(entries))
	for _, e := range entries {
		name := strings.TrimSuffix(strings.TrimPrefix(e.Name(), "tags_"), ".properties")
		langs = append(langs, name)
	}
	return langs
}

func resourceName(lang string) string {
	return "tags/tags_" + strings.ToLower(strings.TrimSpace(lang)) + ".properties"
}

func parse(data []byte) (*Index, error) {
	p, err := properties.Load(data, properties.UTF8)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResource, err)
	}
	return FromProperties(p), nil
}

func newIndex(size int) *Index {
	return &Index{
		tags:    make([]string, 0, size),
		forward: make(map[string][]string, size),
		reverse: make(map[string][]string),
	}
}

func (i *Index) add(tag, value string) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return
	}
	if _, seen := i.forward[tag]; !seen {
		i.tags = append(i.tags, tag)
	}

	value = strings.Trim(strings.TrimSpace(value), `"`)
	for _, s := range strings.Split(value, ",") {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || contains(i.forward[tag], s) {
			continue
		}
		i.forward[tag] = append(i.forward[tag], s)
		if !contains(i.reverse[s], tag) {
			i.reverse[s] = append(i.reverse[s], tag)
		}
	}
	if i.forward[tag] == nil {
		i.forward[tag] = []string{}
	}
}

// Tags returns the tags a spoken word maps to, or nil.
func (i *Index) Tags(spoken string) []string {
	return i.reverse[strings.ToLower(strings.TrimSpace(spoken))]
}

// Synonyms returns the spoken forms configured for a tag, or nil.
func (i *Index) Synonyms(tag string) []string {
	return i.forward[tag]
}

// TagNames returns every tag in load order.
func (i *Index) TagNames() []string {
	out := make([]string, len(i.tags))
	copy(out, i.tags)
	return out
}

// SynonymsWithPrefix returns the synonyms of every tag starting with one of
// the prefixes, deduplicated, in tag order.
func (i *Index) SynonymsWithPrefix(prefixes ...string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, tag := range i.tags {
		if !hasAnyPrefix(tag, prefixes) {
			continue
		}
		for _, s := range i.forward[tag] {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of tags in the index.
func (i *Index) Len() int {
	return len(i.tags)
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
