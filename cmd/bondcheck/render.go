package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/JonMunkholm/bondcheck/internal/core"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const (
	formatTable = "table"
	formatCSV   = "csv"
	formatJSON  = "json"
)

func validFormat(f string) bool {
	switch f {
	case formatTable, formatCSV, formatJSON:
		return true
	}
	return false
}

func render(out io.Writer, format string, matches []core.MatchResult) error {
	switch format {
	case formatCSV:
		return core.WriteMatchesCSV(out, matches)
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Matches []core.MatchResult `json:"matches"`
			Count   int                `json:"count"`
		}{matches, len(matches)})
	default:
		return renderTable(out, matches)
	}
}

// renderTable prints the winners as a bordered table with a summary line.
// Colour is only used when out is a terminal.
func renderTable(out io.Writer, matches []core.MatchResult) error {
	re := lipgloss.NewRenderer(out)
	muted := re.NewStyle().Foreground(lipgloss.Color("8"))

	if len(matches) == 0 {
		_, err := fmt.Fprintf(out, "%s\n%s\n",
			re.NewStyle().Bold(true).Render("No Matches Found"),
			muted.Render("None of your bonds matched the winning numbers this time."))
		return err
	}

	header := re.NewStyle().Bold(true).Padding(0, 1)
	cell := re.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(muted).
		Headers("#", "Bond Number", "Prize", "Denomination").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})

	for i, m := range matches {
		denom := ""
		if m.Denomination != nil {
			denom = strconv.Itoa(*m.Denomination)
		}
		t.Row(strconv.Itoa(i+1), m.Number, m.Prize, denom)
	}

	noun := "winning bonds"
	if len(matches) == 1 {
		noun = "winning bond"
	}
	summary := re.NewStyle().Bold(true).Foreground(lipgloss.Color("2")).
		Render(fmt.Sprintf("Congratulations! You have %d %s!", len(matches), noun))

	_, err := fmt.Fprintf(out, "%s\n%s\n", t.Render(), summary)
	return err
}
