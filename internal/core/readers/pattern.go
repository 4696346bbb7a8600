package readers

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/JonMunkholm/bondcheck/internal/core"
	"github.com/PuerkitoBio/goquery"
)

// sixDigitRE matches a run of exactly six ASCII digits between word boundaries.
// "A123456" and "1234567" do not match; "(123456)" and "123456-7" do.
var sixDigitRE = regexp.MustCompile(`\b\d{6}\b`)

// ExtractSixDigit returns the distinct 6-digit numbers in text, in order of
// first appearance. Returns an empty slice when there are none.
func ExtractSixDigit(text string) []string {
	found := sixDigitRE.FindAllString(text, -1)
	seen := make(map[string]struct{}, len(found))
	numbers := make([]string, 0, len(found))
	for _, n := range found {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		numbers = append(numbers, n)
	}
	return numbers
}

// ReadPattern reads all of r as text and extracts the distinct 6-digit numbers.
// Only I/O failures are errors.
func ReadPattern(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrReadFailure, err)
	}
	return readText(data)
}

func readText(data []byte) ([]string, error) {
	return ExtractSixDigit(decodeText(data)), nil
}

// readHTML scans the visible text of an HTML page, such as a saved draw
// result page. Scripts and styles are dropped and every element boundary
// becomes a space so numbers in adjacent table cells stay apart.
func readHTML(data []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript, template").Remove()

	var b strings.Builder
	collectText(doc.Selection, &b)
	return ExtractSixDigit(b.String()), nil
}

func collectText(sel *goquery.Selection, b *strings.Builder) {
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" {
			b.WriteString(c.Text())
			return
		}
		b.WriteByte(' ')
		collectText(c, b)
		b.WriteByte(' ')
	})
}
