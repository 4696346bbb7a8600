package core

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/goleak"
)

// Test readers use extensions the real readers package never registers, so
// these tests stay independent of file formats.
func init() {
	Register(ReaderDefinition{
		Name:       "test-grid",
		Kind:       KindTabular,
		Extensions: []string{".grid"},
		Read:       readTestGrid,
	})
	Register(ReaderDefinition{
		Name:       "test-words",
		Kind:       KindPattern,
		Extensions: []string{".words"},
		Read:       readTestWords,
	})
	Register(ReaderDefinition{
		Name:       "test-panic",
		Kind:       KindTabular,
		Extensions: []string{".panic"},
		Read: func([]byte) ([]string, error) {
			panic("corrupt container")
		},
	})
}

var errMalformed = errors.New("malformed grid")

// readTestGrid splits on commas and newlines. The content "!bad" fails.
func readTestGrid(data []byte) ([]string, error) {
	s := string(data)
	if strings.HasPrefix(s, "!bad") {
		return nil, errMalformed
	}
	tokens := []string{}
	for _, line := range strings.Split(s, "\n") {
		for _, cell := range strings.Split(line, ",") {
			if v := strings.TrimSpace(cell); v != "" {
				tokens = append(tokens, v)
			}
		}
	}
	return tokens, nil
}

func readTestWords(data []byte) ([]string, error) {
	return strings.Fields(string(data)), nil
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
