// Package samples generates the example input files offered for download:
// a bond list (CSV or Excel) and a plain-text draw result.
//
// The sample draw is built so that checking the sample bond list against it
// finds winners.
package samples

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Download file names.
const (
	OwnCSVName  = "my-bonds.csv"
	OwnXLSXName = "my-bonds.xlsx"
	DrawName    = "draw-result.txt"
)

// ownBonds is the sample holding of Rs. 750 bonds, as a user would keep it.
var ownBonds = []string{
	"014503", "067912", "102387", "145620", "199034",
	"230418", "287715", "301256", "348890", "392047",
	"415563", "458201", "497730", "523318", "564092",
	"611875", "649403", "688120", "734456", "781209",
	"826631", "859974", "903318", "947562", "988001",
}

type prizeTier struct {
	title   string
	amount  string
	numbers []string
}

// drawTiers is the sample draw. Four of the sample bonds win.
var drawTiers = []prizeTier{
	{"First Prize", "Rs. 1,500,000/-", []string{"523318"}},
	{"Second Prize", "Rs. 500,000/- each", []string{"117640", "734456", "950212"}},
	{"Third Prize", "Rs. 9,300/- each", []string{
		"000981", "014503", "039127", "061448", "082316", "103957", "126604", "148272",
		"169930", "191585", "213247", "234890", "256518", "278163", "299809", "321467",
		"343102", "364745", "386390", "408031", "429688", "451304", "472965", "494610",
		"516252", "537894", "559536", "581173", "602827", "624469", "646108", "667743",
		"689385", "711021", "732660", "754307", "775948", "797584", "819226", "840862",
		"862507", "884145", "905783", "927429", "949061", "970702", "992348", "988001",
	}},
}

// OwnBonds returns a copy of the sample bond numbers.
func OwnBonds() []string {
	out := make([]string, len(ownBonds))
	copy(out, ownBonds)
	return out
}

// Winners returns the sample bonds that appear in the sample draw, in bond list order.
func Winners() []string {
	drawn := make(map[string]bool)
	for _, tier := range drawTiers {
		for _, n := range tier.numbers {
			drawn[n] = true
		}
	}
	var out []string
	for _, b := range ownBonds {
		if drawn[b] {
			out = append(out, b)
		}
	}
	return out
}

// WriteOwnCSV writes the sample bond list as a one-column CSV with a header row.
func WriteOwnCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Bond Number"}); err != nil {
		return err
	}
	for _, b := range ownBonds {
		if err := cw.Write([]string{b}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteOwnXLSX writes the sample bond list as an Excel workbook.
// Numbers are stored as text so leading zeros survive.
func WriteOwnXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	if err := f.SetCellStr(sheet, "A1", "Bond Number"); err != nil {
		return err
	}
	for i, b := range ownBonds {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(sheet, cell, b); err != nil {
			return fmt.Errorf("write %s: %w", cell, err)
		}
	}
	if err := f.SetColWidth(sheet, "A", "A", 16); err != nil {
		return err
	}

	_, err := f.WriteTo(w)
	return err
}

// WriteDrawResult writes the sample draw as the kind of text list the
// National Savings draw announcements are published in.
func WriteDrawResult(w io.Writer) error {
	var b strings.Builder
	b.WriteString("NATIONAL SAVINGS\n")
	b.WriteString("LIST OF PRIZE BOND DRAW - Rs. 750 DENOMINATION\n")
	b.WriteString("Draw No. 98   Held at KARACHI   Date: 15-10-2026\n\n")

	for _, tier := range drawTiers {
		fmt.Fprintf(&b, "%s of %s\n", tier.title, tier.amount)
		for i, n := range tier.numbers {
			b.WriteString(n)
			if (i+1)%8 == 0 || i == len(tier.numbers)-1 {
				b.WriteByte('\n')
			} else {
				b.WriteString("   ")
			}
		}
		b.WriteByte('\n')
	}
	b.WriteString("Total prizes: 3,000,000 Rs.\n")

	_, err := io.WriteString(w, b.String())
	return err
}
