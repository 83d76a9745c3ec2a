package stats

// Diff describes how an EntitySet changed.
type Diff struct {
	Added   []string
	Updated []string
	Removed []string

	// Full is set when the set was rebuilt rather than patched. Renderers
	// should redraw everything.
	Full bool
}

// Empty reports whether nothing changed.
func (d Diff) Empty() bool {
	return !d.Full && len(d.Added) == 0 && len(d.Updated) == 0 && len(d.Removed) == 0
}

// dedupe collapses repeated IDs. The last occurrence supplies the values and
// the first occurrence keeps the position.
func dedupe(incoming []Entity) ([]Entity, map[string]int) {
	index := make(map[string]int, len(incoming))
	out := make([]Entity, 0, len(incoming))
	for _, e := range incoming {
		if i, ok := index[e.ID]; ok {
			out[i] = e
			continue
		}
		index[e.ID] = len(out)
		out = append(out, e)
	}
	return out, index
}

// Reconcile patches set so its keys match incoming. Existing entities are
// updated in place, so pointers held by the renderer stay valid. New entities
// are appended after the existing ones in incoming order. Entities missing
// from incoming are removed.
func Reconcile(set *EntitySet, incoming []Entity) Diff {
	entities, index := dedupe(incoming)
	var diff Diff

	order := make([]string, 0, len(entities))
	for _, id := range set.order {
		if _, ok := index[id]; !ok {
			delete(set.byID, id)
			diff.Removed = append(diff.Removed, id)
			continue
		}
		order = append(order, id)
	}

	for _, in := range entities {
		if cur, ok := set.byID[in.ID]; ok {
			if update(cur, in) {
				diff.Updated = append(diff.Updated, in.ID)
			}
			continue
		}
		e := in
		set.byID[in.ID] = &e
		order = append(order, in.ID)
		diff.Added = append(diff.Added, in.ID)
	}

	set.order = order
	return diff
}

// Rebuild replaces the contents of set with incoming in incoming order. Used
// for full refreshes, where a visible redraw is wanted.
func Rebuild(set *EntitySet, incoming []Entity) Diff {
	entities, index := dedupe(incoming)
	diff := Diff{Full: true}

	for _, id := range set.order {
		if _, ok := index[id]; !ok {
			diff.Removed = append(diff.Removed, id)
		}
	}

	byID := make(map[string]*Entity, len(entities))
	order := make([]string, 0, len(entities))
	for _, in := range entities {
		e := in
		if prev, ok := set.byID[in.ID]; ok && prev.RefreshTimestamp.After(e.RefreshTimestamp) {
			e.RefreshTimestamp = prev.RefreshTimestamp
		}
		byID[in.ID] = &e
		order = append(order, in.ID)
		diff.Added = append(diff.Added, in.ID)
	}

	set.byID = byID
	set.order = order
	return diff
}

// update copies the mutable fields of src into dst and reports whether
// anything changed. RefreshTimestamp never moves backwards.
func update(dst *Entity, src Entity) bool {
	if src.RefreshTimestamp.Before(dst.RefreshTimestamp) {
		src.RefreshTimestamp = dst.RefreshTimestamp
	}

	changed := dst.Name != src.Name ||
		dst.Image != src.Image ||
		dst.Status != src.Status ||
		dst.CPUPercent != src.CPUPercent ||
		dst.MemoryUsedMB != src.MemoryUsedMB ||
		dst.MemoryTotalMB != src.MemoryTotalMB ||
		dst.MemoryPercent != src.MemoryPercent ||
		dst.NetworkIO != src.NetworkIO ||
		dst.BlockIO != src.BlockIO ||
		!dst.RefreshTimestamp.Equal(src.RefreshTimestamp)

	if changed {
		*dst = src
	}
	return changed
}
