package meal

// Toggle returns set with item added if absent, removed if present. The input
// slice is not mutated and relative order of the remaining items is kept, so
// rendering stays stable across toggles.
func Toggle(set []string, item string) []string {
	out := make([]string, 0, len(set)+1)
	found := false
	for _, v := range set {
		if v == item {
			found = true
			continue
		}
		out = append(out, v)
	}
	if !found {
		out = append(out, item)
	}
	return out
}

// Contains reports whether item is present in set.
func Contains(set []string, item string) bool {
	for _, v := range set {
		if v == item {
			return true
		}
	}
	return false
}
