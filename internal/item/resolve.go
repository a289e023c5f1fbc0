package item

import "strings"

// Resolve returns the items a single spoken phrase refers to.
func (s *Store) Resolve(phrase string, q Query) []*Item {
	return s.ResolveAny([]string{phrase}, q)
}

// ResolveAny returns the union of the items each phrase refers to,
// deduplicated and in load order.
//
// Per phrase, semantic tags found through the synonym index are tried first.
// Only when they match no item at all does the phrase fall back to direct
// label or synonym equality. Type and room filters apply to both paths.
func (s *Store) ResolveAny(phrases []string, q Query) []*Item {
	matched := make(map[string]struct{})
	for _, p := range phrases {
		for _, it := range s.resolvePhrase(p, q) {
			matched[it.Name] = struct{}{}
		}
	}
	return s.inLoadOrder(matched)
}

// ResolveAll returns the items whose synonyms contain every phrase.
func (s *Store) ResolveAll(phrases []string, q Query) []*Item {
	wanted := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if p = normalize(p); p != "" {
			wanted = append(wanted, p)
		}
	}
	if len(wanted) == 0 {
		return []*Item{}
	}

	var candidates []*Item
	for _, it := range s.items {
		if !matchesType(it, q.Type) {
			continue
		}
		all := true
		for _, w := range wanted {
			if !it.HasSynonym(w) {
				all = false
				break
			}
		}
		if all {
			candidates = append(candidates, it)
		}
	}
	return nonNil(s.filterByLocation(candidates, q.Location))
}

func (s *Store) resolvePhrase(phrase string, q Query) []*Item {
	phrase = normalize(phrase)
	if phrase == "" {
		return nil
	}

	candidates := s.matchTags(s.index.Tags(phrase), q.Type)
	if len(candidates) == 0 {
		candidates = s.matchDirect(phrase, q.Type)
	}
	return s.filterByLocation(candidates, q.Location)
}

// matchTags returns the items carrying any of the Property or Equipment tags.
func (s *Store) matchTags(tags []string, itemType string) []*Item {
	if len(tags) == 0 {
		return nil
	}
	var out []*Item
	for _, it := range s.items {
		if !matchesType(it, itemType) {
			continue
		}
		for _, tag := range tags {
			if s.matchesTag(it, tag) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

func (s *Store) matchesTag(it *Item, tag string) bool {
	switch {
	case strings.HasPrefix(tag, ClassProperty):
		if it.RelatesTo == tag {
			return true
		}
	case strings.HasPrefix(tag, ClassEquipment):
		if it.Semantics == tag {
			return true
		}
	default:
		return false
	}
	return s.model != ModelSemantic && it.HasTag(tagSuffix(tag))
}

// matchDirect returns the items whose label or synonyms equal phrase.
// Locations match too; callers that need switchable items narrow the
// result with SwitchTargets.
func (s *Store) matchDirect(phrase, itemType string) []*Item {
	var out []*Item
	for _, it := range s.items {
		if !matchesType(it, itemType) {
			continue
		}
		if it.Label == phrase || it.HasSynonym(phrase) {
			out = append(out, it)
		}
	}
	return out
}

// FindLocation returns the location a spoken room name refers to, or nil.
// Tag synonyms are tried before direct label/synonym equality; the first
// match in load order wins.
func (s *Store) FindLocation(spoken string) *Item {
	spoken = normalize(spoken)
	if spoken == "" {
		return nil
	}

	if tags := s.index.Tags(spoken); len(tags) > 0 {
		for _, it := range s.items {
			if it.IsLocation() && s.matchesLocationTag(it, tags) {
				return it
			}
		}
	}

	for _, it := range s.items {
		if it.IsLocation() && (it.Label == spoken || it.HasSynonym(spoken)) {
			return it
		}
	}
	return nil
}

func (s *Store) matchesLocationTag(it *Item, tags []string) bool {
	for _, tag := range tags {
		if !strings.HasPrefix(tag, ClassLocation) {
			continue
		}
		if it.Semantics == tag {
			return true
		}
		if s.model != ModelSemantic && it.HasTag(tagSuffix(tag)) {
			return true
		}
	}
	return false
}

// ItemsWithAttributes returns the items matching every set field of q, in
// load order.
func (s *Store) ItemsWithAttributes(q AttributeQuery) []*Item {
	var out []*Item
	for _, it := range s.items {
		if q.Semantics != "" && it.Semantics != q.Semantics {
			continue
		}
		if q.RelatesTo != "" && it.RelatesTo != q.RelatesTo {
			continue
		}
		if q.PointOf != "" && it.IsPointOf != q.PointOf {
			continue
		}
		if !matchesType(it, q.Type) {
			continue
		}
		out = append(out, it)
	}
	return nonNil(s.filterByLocation(out, q.Location))
}

// SwitchTargets expands resolved items into the items that accept ON/OFF.
// Switches and dimmers are kept; equipment groups contribute their
// Point_Control_Switch points. Other items are dropped.
func (s *Store) SwitchTargets(items []*Item) []*Item {
	seen := make(map[string]struct{})
	out := make([]*Item, 0, len(items))
	add := func(it *Item) {
		if _, ok := seen[it.Name]; ok {
			return
		}
		seen[it.Name] = struct{}{}
		out = append(out, it)
	}

	for _, it := range items {
		switch {
		case it.Type == TypeSwitch || it.Type == TypeDimmer:
			add(it)
		case it.Type == TypeGroup && it.IsEquipment():
			for _, name := range it.HasPoints {
				if p, ok := s.byName[name]; ok && p.Semantics == PointControlSwitch {
					add(p)
				}
			}
		}
	}
	return out
}

func (s *Store) inLoadOrder(names map[string]struct{}) []*Item {
	out := make([]*Item, 0, len(names))
	if len(names) == 0 {
		return out
	}
	for _, it := range s.items {
		if _, ok := names[it.Name]; ok {
			out = append(out, it)
		}
	}
	return out
}

func matchesType(it *Item, itemType string) bool {
	return itemType == "" || it.Type == itemType
}

func nonNil(items []*Item) []*Item {
	if items == nil {
		return []*Item{}
	}
	return items
}
