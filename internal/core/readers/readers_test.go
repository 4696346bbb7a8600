package readers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/JonMunkholm/bondcheck/internal/core"
	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"
)

// buildWorkbook writes sheets of rows to an in-memory .xlsx file.
// The first entry becomes the first sheet.
func buildWorkbook(t *testing.T, sheets map[string][][]any, order ...string) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 && name != "Sheet1" {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else if i > 0 {
			if _, err := f.NewSheet(name); err != nil {
				t.Fatalf("new sheet: %v", err)
			}
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				t.Fatalf("set row: %v", err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestReadTabular_CSV(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "row-major with trimming",
			input: "Bond, Number \n 123456 ,000111\n999999",
			want:  []string{"Bond", "Number", "123456", "000111", "999999"},
		},
		{
			name:  "empty and whitespace cells dropped",
			input: "123456,,  \n\n,654321,\t\n",
			want:  []string{"123456", "654321"},
		},
		{
			name:  "quoted separators kept in one cell",
			input: "\"12,3456\",\"654321\"\r\n",
			want:  []string{"12,3456", "654321"},
		},
		{
			name:  "ragged rows",
			input: "111111\n222222,333333,444444\n555555,666666",
			want:  []string{"111111", "222222", "333333", "444444", "555555", "666666"},
		},
		{
			name:  "byte order mark stripped",
			input: "\xEF\xBB\xBF123456,654321",
			want:  []string{"123456", "654321"},
		},
		{
			name:  "leading zeros preserved",
			input: "012345,000001",
			want:  []string{"012345", "000001"},
		},
		{
			name:  "lone CR line endings",
			input: "111111\r222222\r333333",
			want:  []string{"111111", "222222", "333333"},
		},
		{
			name:  "lone CR with quoted cell",
			input: "\"111111\",222222\r333333\r",
			want:  []string{"111111", "222222", "333333"},
		},
		{
			name:  "empty file",
			input: "",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadTabular("bonds.csv", strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("ReadTabular: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("tokens mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReadTabular_XLSX(t *testing.T) {
	data := buildWorkbook(t, map[string][][]any{
		"Bonds": {
			{"Bond Number", "Denomination"},
			{"012345", 750},
			{nil, "  ", "999999"},
			{123456},
		},
		"Ignored": {
			{"555555"},
		},
	}, "Bonds", "Ignored")

	for _, name := range []string{"bonds.xlsx", "BONDS.XLSM"} {
		t.Run(name, func(t *testing.T) {
			got, err := ReadTabular(name, bytes.NewReader(data))
			if err != nil {
				t.Fatalf("ReadTabular: %v", err)
			}
			want := []string{"Bond Number", "Denomination", "012345", "750", "999999", "123456"}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("tokens mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// testdata/bonds.xls is a BIFF8 workbook with two sheets. The first holds a
// header row, a blank cell, a padded label, a numeric cell, a row with no
// records and a cell written without a ROW record. The second sheet holds
// 999999, which must not be read.
func TestReadTabular_XLS(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "bonds.xls"))
	if err != nil {
		t.Fatal(err)
	}

	got, err := ReadTabular("bonds.xls", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadTabular: %v", err)
	}
	want := []string{"Bond Number", "Note", "014503", "523318", "734456", "Draw 98", "988001"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestReadTabular_Errors(t *testing.T) {
	ioErr := errors.New("disk gone")

	tests := []struct {
		name    string
		file    string
		reader  io.Reader
		wantErr error
	}{
		{name: "text file not tabular", file: "draw.txt", reader: strings.NewReader("123456"), wantErr: core.ErrUnsupportedFormat},
		{name: "unknown extension", file: "bonds.pdf", reader: strings.NewReader("123456"), wantErr: core.ErrUnsupportedFormat},
		{name: "no extension", file: "bonds", reader: strings.NewReader("123456"), wantErr: core.ErrUnsupportedFormat},
		{name: "corrupt workbook", file: "bonds.xlsx", reader: strings.NewReader("not a zip"), wantErr: core.ErrReadFailure},
		{name: "corrupt legacy workbook", file: "bonds.xls", reader: strings.NewReader("not a workbook"), wantErr: core.ErrReadFailure},
		{name: "io failure", file: "bonds.csv", reader: iotest.ErrReader(ioErr), wantErr: ioErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadTabular(tt.file, tt.reader)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != nil {
				t.Errorf("partial result on failure: %v", got)
			}
		})
	}
}

func TestExtractSixDigit(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "draw list with repeats",
			text: "Draw 98 ... 123456 ... 999999 bonus 999999 ...",
			want: []string{"123456", "999999"},
		},
		{
			name: "longer and shorter runs ignored",
			text: "12345 1234567 000111 98765432",
			want: []string{"000111"},
		},
		{
			name: "punctuation bounds",
			text: "(123456),654321;111111-222222\n333333.",
			want: []string{"123456", "654321", "111111", "222222", "333333"},
		},
		{
			name: "letters adjacent block a match",
			text: "A123456 123456B x_123456 123456",
			want: []string{"123456"},
		},
		{
			name: "no numbers",
			text: "Rs. 750 draw held at Karachi",
			want: []string{},
		},
		{
			name: "empty",
			text: "",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractSixDigit(tt.text)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ExtractSixDigit mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReadPattern(t *testing.T) {
	got, err := ReadPattern(strings.NewReader("\xEF\xBB\xBF123456\n\xff654321 123456"))
	if err != nil {
		t.Fatalf("ReadPattern: %v", err)
	}
	if diff := cmp.Diff([]string{"123456", "654321"}, got); diff != "" {
		t.Errorf("ReadPattern mismatch (-want +got):\n%s", diff)
	}

	ioErr := errors.New("pipe closed")
	if _, err := ReadPattern(iotest.ErrReader(ioErr)); !errors.Is(err, core.ErrReadFailure) || !errors.Is(err, ioErr) {
		t.Errorf("io failure: err = %v", err)
	}
}

func TestReadHTML(t *testing.T) {
	page := `<html><head><style>.n{color:#123456}</style>
<script>var id = 111111;</script></head>
<body><h1>Draw No. 98</h1>
<table><tr><td>123456</td><td>654321</td></tr>
<tr><td>123456</td></tr></table>
<p>First prize: <b>999999</b></p></body></html>`

	got, err := readHTML([]byte(page))
	if err != nil {
		t.Fatalf("readHTML: %v", err)
	}
	want := []string{"123456", "654321", "999999"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("readHTML mismatch (-want +got):\n%s", diff)
	}
}

func TestRegisteredReaders(t *testing.T) {
	tests := []struct {
		file     string
		category core.Category
		wantName string
		wantErr  bool
	}{
		{"bonds.csv", core.CategoryOwn, "csv", false},
		{"bonds.xlsx", core.CategoryOwn, "xlsx", false},
		{"bonds.xls", core.CategoryOwn, "xls", false},
		{"draw.txt", core.CategoryOwn, "", true},
		{"draw.txt", core.CategoryWinning, "text", false},
		{"draw.HTML", core.CategoryWinning, "html", false},
		{"draw.csv", core.CategoryWinning, "csv", false},
		{"draw.pdf", core.CategoryWinning, "", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.category)+"/"+tt.file, func(t *testing.T) {
			def, err := core.Lookup(tt.category, tt.file)
			if tt.wantErr {
				if !errors.Is(err, core.ErrUnsupportedFormat) {
					t.Errorf("err = %v, want ErrUnsupportedFormat", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Lookup: %v", err)
			}
			if def.Name != tt.wantName {
				t.Errorf("reader = %q, want %q", def.Name, tt.wantName)
			}
		})
	}
}

func TestSessionLoadsRealFiles(t *testing.T) {
	ctx := context.Background()
	sess := core.NewSession("s1", core.SessionOptions{})

	own := buildWorkbook(t, map[string][][]any{
		"Sheet1": {{"123456"}, {"000111"}, {"999999"}},
	}, "Sheet1")
	if err := sess.LoadOwn(ctx, "750 bonds.xlsx", own); err != nil {
		t.Fatalf("LoadOwn: %v", err)
	}
	if err := sess.LoadWinning(ctx, "DRAW-RESULT.txt", []byte("...123456...999999 bonus 999999...")); err != nil {
		t.Fatalf("LoadWinning: %v", err)
	}

	got, err := sess.Check()
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	want := []core.MatchResult{
		{Number: "123456", Prize: core.DefaultPrizeLabel},
		{Number: "999999", Prize: core.DefaultPrizeLabel},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Check mismatch (-want +got):\n%s", diff)
	}

	// Text files are rejected for the own list and leave it intact.
	if err := sess.LoadOwn(ctx, "notes.txt", []byte("555555")); !errors.Is(err, core.ErrUnsupportedFormat) {
		t.Errorf("LoadOwn(.txt) err = %v", err)
	}
	if n := len(sess.Snapshot().Own); n != 3 {
		t.Errorf("own list has %d entries, want 3", n)
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "draw.txt")
	if err := os.WriteFile(path, []byte("winners: 123456, 654321"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := ReadFile(core.CategoryWinning, path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if diff := cmp.Diff([]string{"123456", "654321"}, got); diff != "" {
		t.Errorf("ReadFile mismatch (-want +got):\n%s", diff)
	}

	if _, err := ReadFile(core.CategoryOwn, path); !errors.Is(err, core.ErrUnsupportedFormat) {
		t.Errorf("ReadFile(own, .txt) err = %v", err)
	}
	if _, err := ReadFile(core.CategoryWinning, filepath.Join(dir, "missing.txt")); !errors.Is(err, core.ErrReadFailure) {
		t.Errorf("ReadFile(missing) err = %v", err)
	}
}
