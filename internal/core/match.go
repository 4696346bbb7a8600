package core

// Match returns the bonds from own that appear in winning, in own's order.
//
// Numbers are compared as exact strings: "012345" does not match "12345".
// When winning repeats a number, its last entry supplies the prize label.
// Each result carries the denomination of the user's bond, not the winning entry's.
// Duplicates in own yield one result per occurrence.
func Match(own []Identifier, winning []WinningEntry) []MatchResult {
	results := []MatchResult{}
	if len(own) == 0 || len(winning) == 0 {
		return results
	}

	byNumber := make(map[string]WinningEntry, len(winning))
	for _, w := range winning {
		byNumber[w.Number] = w
	}

	for _, bond := range own {
		w, ok := byNumber[bond.Number]
		if !ok {
			continue
		}
		results = append(results, MatchResult{
			Number:       bond.Number,
			Prize:        w.Prize,
			Denomination: bond.Denomination,
		})
	}
	return results
}

// ToIdentifiers wraps reader tokens as own-list identifiers.
func ToIdentifiers(tokens []string) []Identifier {
	ids := make([]Identifier, len(tokens))
	for i, t := range tokens {
		ids[i] = Identifier{Number: t}
	}
	return ids
}

// ToWinningEntries wraps reader tokens as winning entries with the given label.
// An empty label falls back to DefaultPrizeLabel.
func ToWinningEntries(tokens []string, prize string) []WinningEntry {
	if prize == "" {
		prize = DefaultPrizeLabel
	}
	entries := make([]WinningEntry, len(tokens))
	for i, t := range tokens {
		entries[i] = WinningEntry{Number: t, Prize: prize}
	}
	return entries
}
