package readers

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// utf8BOM is prepended by Excel and Notepad when saving "UTF-8" files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText strips a leading UTF-8 BOM and replaces invalid UTF-8 with U+FFFD.
// Browsers decode uploads the same way before the text reaches any parser.
func decodeText(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "\uFFFD")
}

// flatten collects trimmed, non-empty cells in row-major order.
func flatten(rows [][]string) []string {
	tokens := []string{}
	for _, row := range rows {
		for _, cell := range row {
			if v := strings.TrimSpace(cell); v != "" {
				tokens = append(tokens, v)
			}
		}
	}
	return tokens
}
