package inventory

// Group is a run of items sharing one prototype and name.
type Group struct {
	PrototypeID string
	Name        string
	Items       []*Item
}

// Count returns the number of items in the group.
func (g Group) Count() int { return len(g.Items) }

// GroupByPrototype builds a grouped view of items keyed by prototype and
// name, in first-seen order. Listing code iterates the groups instead of
// skipping duplicates in the underlying slice.
//
// Postcondition: the sum of Count over the result equals len(items).
func GroupByPrototype(items []*Item) []Group {
	type key struct{ proto, name string }
	index := make(map[key]int)
	var out []Group
	for _, it := range items {
		k := key{it.PrototypeID, it.Name}
		if i, ok := index[k]; ok {
			out[i].Items = append(out[i].Items, it)
			continue
		}
		index[k] = len(out)
		out = append(out, Group{PrototypeID: it.PrototypeID, Name: it.Name, Items: []*Item{it}})
	}
	return out
}
