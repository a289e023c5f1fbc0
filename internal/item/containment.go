package item

// Contains reports whether item sits inside location under the store's model.
func (s *Store) Contains(item, location *Item) bool {
	if item == nil || location == nil {
		return false
	}
	if s.model == ModelSemantic {
		return s.IsPartOfLocation(item, location)
	}
	return s.IsInLocation(item, location)
}

// IsPartOfLocation walks the semantic edges hasLocation, isPointOf and
// isPartOf. Every edge is tried; any path reaching location wins.
func (s *Store) IsPartOfLocation(item, location *Item) bool {
	if item == nil || location == nil {
		return false
	}
	return s.partOf(item, location.Name, make(map[string]struct{}))
}

func (s *Store) partOf(it *Item, target string, visited map[string]struct{}) bool {
	if _, seen := visited[it.Name]; seen {
		return false
	}
	visited[it.Name] = struct{}{}

	for _, edge := range [...]string{it.HasLocation, it.IsPointOf, it.IsPartOf} {
		if edge == "" {
			continue
		}
		if edge == target {
			return true
		}
		if next, ok := s.byName[edge]; ok && s.partOf(next, target, visited) {
			return true
		}
	}
	return false
}

// IsInLocation walks group memberships transitively.
func (s *Store) IsInLocation(item, location *Item) bool {
	if item == nil || location == nil {
		return false
	}
	return s.inGroup(item, location.Name, make(map[string]struct{}))
}

func (s *Store) inGroup(it *Item, target string, visited map[string]struct{}) bool {
	if _, seen := visited[it.Name]; seen {
		return false
	}
	visited[it.Name] = struct{}{}

	for _, g := range it.GroupNames {
		if g == target {
			return true
		}
		if next, ok := s.byName[g]; ok && s.inGroup(next, target, visited) {
			return true
		}
	}
	return false
}

// filterByLocation keeps the items contained in location. A nil location
// keeps everything.
func (s *Store) filterByLocation(items []*Item, location *Item) []*Item {
	if location == nil {
		return items
	}
	out := make([]*Item, 0, len(items))
	for _, it := range items {
		if s.Contains(it, location) {
			out = append(out, it)
		}
	}
	return out
}
