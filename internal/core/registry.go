package core

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ReaderKind separates readers that walk spreadsheet cells from readers that
// scan free text for bond numbers.
type ReaderKind int

const (
	KindTabular ReaderKind = iota
	KindPattern
)

func (k ReaderKind) String() string {
	switch k {
	case KindTabular:
		return "tabular"
	case KindPattern:
		return "pattern"
	default:
		return "unknown"
	}
}

// ReadFunc turns raw file bytes into ordered tokens.
type ReadFunc func(data []byte) ([]string, error)

// ReaderDefinition describes a reader for one or more file extensions.
type ReaderDefinition struct {
	Name       string     // Short name for logs: "csv", "xlsx"
	Kind       ReaderKind // Tabular readers serve both categories, pattern readers only winning lists
	Extensions []string   // Lowercase, with leading dot: ".csv"
	Read       ReadFunc
}

// Accepts reports whether the reader may load files into the category.
func (d ReaderDefinition) Accepts(c Category) bool {
	switch c {
	case CategoryOwn:
		return d.Kind == KindTabular
	case CategoryWinning:
		return true
	default:
		return false
	}
}

var (
	readers   = make(map[string]ReaderDefinition)
	readersMu sync.RWMutex
)

// Register adds a reader definition to the registry.
// Panics if one of its extensions is already registered.
func Register(def ReaderDefinition) {
	readersMu.Lock()
	defer readersMu.Unlock()

	if def.Read == nil {
		panic(fmt.Sprintf("reader %q has no Read func", def.Name))
	}

	for _, ext := range def.Extensions {
		ext = strings.ToLower(ext)
		if _, exists := readers[ext]; exists {
			panic(fmt.Sprintf("reader already registered for extension: %s", ext))
		}
		readers[ext] = def
	}
}

// Lookup returns the reader for a file name within a category.
// Returns ErrUnsupportedFormat when the extension is unknown or the reader
// cannot load into the category.
func Lookup(c Category, fileName string) (ReaderDefinition, error) {
	ext := strings.ToLower(filepath.Ext(fileName))

	readersMu.RLock()
	def, ok := readers[ext]
	readersMu.RUnlock()

	if !ok || !def.Accepts(c) {
		return ReaderDefinition{}, fmt.Errorf("%w: %q for %s list", ErrUnsupportedFormat, ext, c)
	}
	return def, nil
}

// Extensions returns the sorted extensions accepted for a category.
// Used for the file input accept attribute and CLI help.
func Extensions(c Category) []string {
	readersMu.RLock()
	defer readersMu.RUnlock()

	var exts []string
	for ext, def := range readers {
		if def.Accepts(c) {
			exts = append(exts, ext)
		}
	}
	sort.Strings(exts)
	return exts
}

// ReaderCount returns the number of registered extensions.
func ReaderCount() int {
	readersMu.RLock()
	defer readersMu.RUnlock()
	return len(readers)
}
