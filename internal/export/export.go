// Package export turns a form's responses into a table and writes it to an
// XLSX workbook or a Google Sheets tab.
package export

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/tealeg/xlsx/v3"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/models"
)

// SheetName is the worksheet written by WriteXLSX and the default Google
// Sheets tab.
const SheetName = "Responses"

const submittedLayout = "2006-01-02 15:04:05"

// Table is a header plus one row per submission.
type Table struct {
	Header []string
	Rows   [][]string
}

// BuildTable lays out subs, oldest first, with one column per question in
// position order.
func BuildTable(qs []models.Question, subs []models.Submission) Table {
	t := Table{Header: []string{"Submitted At", "Score", "Outcome"}}
	col := make(map[string]int, len(qs))
	for i, q := range qs {
		t.Header = append(t.Header, q.Text)
		col[q.ID] = 3 + i
	}
	for _, sub := range subs {
		row := make([]string, len(t.Header))
		row[0] = submittedAt(sub.CreatedAt)
		if sub.Score != nil {
			row[1] = fmt.Sprintf("%.2f", *sub.Score)
		}
		row[2] = sub.Outcome
		for _, a := range sub.Answers {
			if i, ok := col[a.QuestionID]; ok {
				row[i] = FormatValue(a.Value)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// FormatValue renders an answer value as cell text.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "Yes"
		}
		return "No"
	case float64:
		if x == math.Trunc(x) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%g", x)
	case int:
		return fmt.Sprintf("%d", x)
	case []string:
		return strings.Join(x, ", ")
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			parts = append(parts, FormatValue(item))
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprint(v)
}

func submittedAt(ts string) string {
	t, err := models.ParseTimestamp(ts)
	if err != nil {
		return ts
	}
	return t.UTC().Format(submittedLayout)
}

// WriteXLSX writes t as a single-sheet workbook.
func WriteXLSX(w io.Writer, t Table) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return fmt.Errorf("export: add sheet: %w", err)
	}
	header := sheet.AddRow()
	for _, h := range t.Header {
		c := header.AddCell()
		c.SetString(h)
		c.GetStyle().Font.Bold = true
	}
	for _, r := range t.Rows {
		row := sheet.AddRow()
		for _, v := range r {
			row.AddCell().SetString(v)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: write xlsx: %w", err)
	}
	return nil
}

// Values converts t into the [][]interface{} shape the Sheets API expects.
func (t Table) Values() [][]interface{} {
	out := make([][]interface{}, 0, len(t.Rows)+1)
	out = append(out, toInterfaces(t.Header))
	for _, r := range t.Rows {
		out = append(out, toInterfaces(r))
	}
	return out
}

func toInterfaces(ss []string) []interface{} {
	row := make([]interface{}, len(ss))
	for i, s := range ss {
		row[i] = s
	}
	return row
}
