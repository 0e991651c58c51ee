package export

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"
	"google.golang.org/api/option"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/models"
)

func sampleTable() Table {
	score := 4.5
	qs := []models.Question{
		{ID: "q1", Type: models.QuestionRating, Text: "Food"},
		{ID: "q2", Type: models.QuestionMultipleChoice, Text: "Visited for", Options: []string{"Lunch", "Dinner"}},
		{ID: "q3", Type: models.QuestionYesNo, Text: "Return?"},
	}
	subs := []models.Submission{
		{
			Score:     &score,
			Outcome:   models.OutcomeReviewRedirect,
			CreatedAt: "2026-03-01T12:00:00.000000Z",
			Answers: []models.Answer{
				{QuestionID: "q1", Value: float64(5)},
				{QuestionID: "q2", Value: []any{"Lunch", "Dinner"}},
				{QuestionID: "q3", Value: true},
			},
		},
		{
			Outcome:   models.OutcomePrivate,
			CreatedAt: "2026-03-02T08:30:00.000000Z",
			Answers:   []models.Answer{{QuestionID: "q3", Value: false}},
		},
	}
	return BuildTable(qs, subs)
}

func TestBuildTable(t *testing.T) {
	tbl := sampleTable()
	assert.Equal(t, []string{"Submitted At", "Score", "Outcome", "Food", "Visited for", "Return?"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"2026-03-01 12:00:00", "4.50", "review_redirect", "5", "Lunch, Dinner", "Yes"}, tbl.Rows[0])
	assert.Equal(t, []string{"2026-03-02 08:30:00", "", "private", "", "", "No"}, tbl.Rows[1])
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "3.5", FormatValue(3.5))
	assert.Equal(t, "a, b", FormatValue([]string{"a", "b"}))
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleTable()))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	sheet, ok := f.Sheet[SheetName]
	require.True(t, ok)
	assert.Equal(t, 3, sheet.MaxRow)

	cell, err := sheet.Cell(0, 3)
	require.NoError(t, err)
	assert.Equal(t, "Food", cell.Value)
	cell, err = sheet.Cell(1, 4)
	require.NoError(t, err)
	assert.Equal(t, "Lunch, Dinner", cell.Value)
}

type fakeSheets struct {
	mu       sync.Mutex
	calls    []string
	values   [][]any
	inputOpt string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet:
		io.WriteString(w, `{"spreadsheetId":"sheet1","sheets":[{"properties":{"title":"Summary"}}]}`)
	case strings.HasSuffix(r.URL.Path, ":batchUpdate"):
		io.WriteString(w, `{"spreadsheetId":"sheet1"}`)
	case r.Method == http.MethodPut:
		f.inputOpt = r.URL.Query().Get("valueInputOption")
		var body struct {
			Values [][]any `json:"values"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.values = body.Values
		io.WriteString(w, `{"spreadsheetId":"sheet1","updatedRows":3}`)
	default:
		http.NotFound(w, r)
	}
}

func TestSheetsWriterAddsMissingTab(t *testing.T) {
	fake := &fakeSheets{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	ctx := context.Background()
	w, err := NewSheetsWriter(ctx, option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	rows, err := w.Write(ctx, "sheet1", "", sampleTable())
	require.NoError(t, err)
	assert.Equal(t, 3, rows)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.calls, 3)
	assert.Contains(t, fake.calls[1], ":batchUpdate")
	assert.Equal(t, "USER_ENTERED", fake.inputOpt)
	require.Len(t, fake.values, 3)
	assert.Equal(t, "Submitted At", fake.values[0][0])
}

func TestNewSheetsWriterFromFileMissing(t *testing.T) {
	_, err := NewSheetsWriterFromFile(context.Background(), "/nonexistent/creds.json")
	require.Error(t, err)
}
