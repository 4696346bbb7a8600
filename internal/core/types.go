package core

import "time"

// DefaultPrizeLabel is attached to every winning entry unless a richer source
// or configuration provides another label.
const DefaultPrizeLabel = "Prize Winner"

// Category identifies which of the two lists a file is loaded into.
type Category string

const (
	CategoryOwn     Category = "own"
	CategoryWinning Category = "winning"
)

// Label returns the display name for the category.
func (c Category) Label() string {
	switch c {
	case CategoryOwn:
		return "My Prize Bonds"
	case CategoryWinning:
		return "Winning Numbers"
	default:
		return string(c)
	}
}

// Identifier is one bond number from the user's own list.
type Identifier struct {
	Number string `json:"number"`

	// Denomination is the face value. No reader populates it yet.
	Denomination *int `json:"denomination,omitempty"`
}

// WinningEntry is a bond number known to have won, with its prize label.
type WinningEntry struct {
	Number       string `json:"number"`
	Prize        string `json:"prize"`
	Denomination *int   `json:"denomination,omitempty"`
}

// MatchResult is a bond that appears in both lists.
type MatchResult struct {
	Number       string `json:"bondNumber"`
	Prize        string `json:"prize"`
	Denomination *int   `json:"denomination,omitempty"`
}

// ReadResult is the outcome of an asynchronous file read.
// Exactly one of Tokens (possibly empty) or Err is meaningful.
type ReadResult struct {
	Tokens []string
	Err    error
}

// OK reports whether the read succeeded.
func (r ReadResult) OK() bool {
	return r.Err == nil
}

// Snapshot is a read-only copy of a session's state.
type Snapshot struct {
	SessionID string `json:"sessionId"`

	Own     []Identifier   `json:"own"`
	Winning []WinningEntry `json:"winning"`
	Matches []MatchResult  `json:"matches"`

	OwnLoaded     bool `json:"ownLoaded"`
	WinningLoaded bool `json:"winningLoaded"`
	Checked       bool `json:"checked"`

	OwnFile         string    `json:"ownFile,omitempty"`
	WinningFile     string    `json:"winningFile,omitempty"`
	OwnLoadedAt     time.Time `json:"ownLoadedAt,omitzero"`
	WinningLoadedAt time.Time `json:"winningLoadedAt,omitzero"`
}

// CanCheck reports whether both lists hold at least one entry.
func (s Snapshot) CanCheck() bool {
	return len(s.Own) > 0 && len(s.Winning) > 0
}
