package item

// Vocabulary is the set of words a voice assistant should recognise.
type Vocabulary struct {
	Devices   []string `json:"devices"`
	Locations []string `json:"locations"`
}

// Vocabulary collects device and location names for injection into the
// speech recogniser. Devices are the labels and synonyms of non-location
// items plus Property and Equipment tag synonyms; locations are the labels
// and synonyms of location items plus Location tag synonyms. A word never
// appears twice within one list.
func (s *Store) Vocabulary() Vocabulary {
	devices := newWordSet()
	locations := newWordSet()

	for _, it := range s.items {
		target := devices
		if it.IsLocation() {
			target = locations
		}
		target.add(it.Label)
		for _, syn := range it.Synonyms {
			target.add(syn)
		}
	}
	for _, w := range s.index.SynonymsWithPrefix(ClassProperty, ClassEquipment) {
		devices.add(w)
	}
	for _, w := range s.index.SynonymsWithPrefix(ClassLocation) {
		locations.add(w)
	}

	return Vocabulary{Devices: devices.words, Locations: locations.words}
}

type wordSet struct {
	seen  map[string]struct{}
	words []string
}

func newWordSet() *wordSet {
	return &wordSet{seen: make(map[string]struct{}), words: []string{}}
}

func (w *wordSet) add(s string) {
	if s == "" {
		return
	}
	if _, ok := w.seen[s]; ok {
		return
	}
	w.seen[s] = struct{}{}
	w.words = append(w.words, s)
}
