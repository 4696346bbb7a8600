// Package readers registers the file readers used to load bond lists.
//
// Import it for side effects wherever sessions load files:
//
//	import _ "github.com/JonMunkholm/bondcheck/internal/core/readers"
package readers

import (
	"fmt"
	"os"

	"github.com/JonMunkholm/bondcheck/internal/core"
)

func init() {
	core.Register(core.ReaderDefinition{
		Name:       "csv",
		Kind:       core.KindTabular,
		Extensions: []string{".csv"},
		Read:       readCSV,
	})
	core.Register(core.ReaderDefinition{
		Name:       "xlsx",
		Kind:       core.KindTabular,
		Extensions: []string{".xlsx", ".xlsm"},
		Read:       readXLSX,
	})
	core.Register(core.ReaderDefinition{
		Name:       "xls",
		Kind:       core.KindTabular,
		Extensions: []string{".xls"},
		Read:       readXLS,
	})
	core.Register(core.ReaderDefinition{
		Name:       "text",
		Kind:       core.KindPattern,
		Extensions: []string{".txt", ".text"},
		Read:       readText,
	})
	core.Register(core.ReaderDefinition{
		Name:       "html",
		Kind:       core.KindPattern,
		Extensions: []string{".html", ".htm"},
		Read:       readHTML,
	})
}

// ReadFile reads a file from disk into tokens for the given category.
// The reader is picked from the file extension.
func ReadFile(c core.Category, path string) ([]string, error) {
	def, err := core.Lookup(c, path)
	if err != nil {
		return nil, err
	}

	// #nosec G304 - the path is supplied by the local user on the command line
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrReadFailure, err)
	}

	res := <-core.ReadAsync(def.Read, data)
	return res.Tokens, res.Err
}
