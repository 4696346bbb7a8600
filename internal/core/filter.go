package core

import "strings"

// FilterIdentifiers returns the bonds whose number contains query, in order.
// An empty query returns the full list.
func FilterIdentifiers(list []Identifier, query string) []Identifier {
	query = strings.TrimSpace(query)
	if query == "" {
		return list
	}
	out := []Identifier{}
	for _, id := range list {
		if strings.Contains(id.Number, query) {
			out = append(out, id)
		}
	}
	return out
}

// FilterWinning returns the winning entries whose number contains query, in order.
func FilterWinning(list []WinningEntry, query string) []WinningEntry {
	query = strings.TrimSpace(query)
	if query == "" {
		return list
	}
	out := []WinningEntry{}
	for _, w := range list {
		if strings.Contains(w.Number, query) {
			out = append(out, w)
		}
	}
	return out
}
