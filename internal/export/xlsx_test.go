package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"ticketscan/backend/internal/ticketparser/core"
	"ticketscan/backend/internal/ticketparser/extract"
)

func TestScansXLSX(t *testing.T) {
	venue := "東京国際フォーラム"
	title := "ミュージカル『エリザベート』"
	date, ok := extract.NewDate(2025, 11, 3)
	require.True(t, ok)

	data, err := ScansXLSX([]core.ScanResult{
		{
			ID:        "a1",
			Fields:    core.FieldRecord{EventDate: &date, Venue: &venue, Title: &title},
			ImageURL:  "https://cdn.example.com/tickets/a1.jpg",
			CreatedAt: time.Date(2025, 10, 1, 12, 30, 0, 0, time.UTC),
		},
		{ID: "b2"},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, headers, rows[0])
	assert.Equal(t, []string{"a1", "2025-11-03", venue, title, "https://cdn.example.com/tickets/a1.jpg", "2025-10-01T12:30:00Z"}, rows[1])
	assert.Equal(t, []string{"b2"}, rows[2])
}

func TestScansXLSXEmpty(t *testing.T) {
	data, err := ScansXLSX(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
