package core

import (
	"encoding/csv"
	"io"
	"strconv"
)

// MatchExportHeader is the header row of exported match results.
var MatchExportHeader = []string{"#", "Bond Number", "Prize", "Denomination"}

// WriteMatchesCSV writes match results as CSV, one row per result.
func WriteMatchesCSV(w io.Writer, matches []MatchResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(MatchExportHeader); err != nil {
		return err
	}
	for i, m := range matches {
		denom := ""
		if m.Denomination != nil {
			denom = strconv.Itoa(*m.Denomination)
		}
		if err := cw.Write([]string{strconv.Itoa(i + 1), m.Number, m.Prize, denom}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
