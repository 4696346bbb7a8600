// Package core provides the business logic for checking prize bonds against a draw.
//
// This package holds all domain logic independent of any UI or transport layer.
// It is used by the web handlers and by the command line tool without modification.
//
// # Architecture
//
//   - Readers: registered per file extension via [Register]. Each [ReaderDefinition]
//     turns uploaded bytes into an ordered list of string tokens. The concrete
//     readers live in the readers subpackage and register themselves at init time.
//   - Matcher: [Match] intersects the user's bonds with the winning entries,
//     preserving the user's list order.
//   - Session: [Session] holds the two loaded lists and the last match results for
//     one browser session. [SessionStore] owns sessions and expires idle ones.
//   - Limiter: [Limiter] caps how many files are parsed at the same time.
//
// # Reader Registry
//
// Readers are registered at init time using [Register]:
//
//	core.Register(core.ReaderDefinition{
//	    Kind:       core.KindTabular,
//	    Extensions: []string{".csv"},
//	    Read:       readCSV,
//	})
//
// Own bond lists accept tabular readers only. Winning lists accept tabular and
// pattern readers.
//
// # Reads
//
// A read runs in its own goroutine and is exposed as a future via [ReadAsync].
// The result is either a token list or an error wrapping [ErrReadFailure]. A failed
// read never touches session state.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError]:
//
//   - FILE001-FILE004: File errors (size, format, unreadable, missing)
//   - MATCH001: Matching requested before both lists were loaded
//   - UPL002-UPL005: Busy, cancelled, timed out
//   - SES001: Session expired
package core
