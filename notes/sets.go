package notes

import "strings"

// AddToSet appends the items not already present, keeping first-seen
// order. Blank items are dropped.
func AddToSet(current []string, items ...string) []string {
	out := make([]string, 0, len(current)+len(items))
	seen := make(map[string]struct{}, len(current)+len(items))

	for _, group := range [][]string{current, items} {
		for _, item := range group {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			if _, dup := seen[item]; dup {
				continue
			}
			seen[item] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}

// RemoveFromSet drops every element of current that appears in items.
func RemoveFromSet(current []string, items ...string) []string {
	drop := make(map[string]struct{}, len(items))
	for _, item := range items {
		drop[strings.TrimSpace(item)] = struct{}{}
	}

	out := make([]string, 0, len(current))
	for _, c := range current {
		if _, ok := drop[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}
