package ticketparser_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketscan/backend/internal/config"
	"ticketscan/backend/internal/ticketparser"
	"ticketscan/backend/internal/ticketparser/core"
)

func TestExtractFieldsScenarios(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{
			name: "latest date wins",
			text: "2025年8月10日\n2025/7/1",
			want: `{"event_date":"2025-08-10","venue":null,"title":null}`,
		},
		{
			name: "month day then year",
			text: "8月10日(日)2025年",
			want: `{"event_date":"2025-08-10","venue":null,"title":null}`,
		},
		{
			name: "two digit year",
			text: "25年8月10日",
			want: `{"event_date":"2025-08-10","venue":null,"title":null}`,
		},
		{
			name: "catalog venue",
			text: "開場 17:30\n日本武道館",
			want: `{"event_date":null,"venue":"日本武道館","title":null}`,
		},
		{
			name: "title span stops at credits",
			text: "レ・ミゼラブル WORLD TOUR\n『LES MISERABLES』\n主催：〇〇",
			want: `{"event_date":null,"venue":null,"title":"レ・ミゼラブル WORLD TOUR 『LES MISERABLES』"}`,
		},
		{
			name: "nothing found",
			text: "入場無料\nどなたでもどうぞ",
			want: `{"event_date":null,"venue":null,"title":null}`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := json.Marshal(ticketparser.ExtractFields(tc.text))
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, string(got))
		})
	}
}

func TestNewScannerFakeText(t *testing.T) {
	dir := t.TempDir()
	textFile := filepath.Join(dir, "ticket.txt")
	require.NoError(t, os.WriteFile(textFile, []byte("2025年8月10日\n東急シアターオーブ\n"), 0o600))

	cfg := &config.Config{OCR: config.OCRConfig{Backend: config.OCRBackendFake, FakeTextFile: textFile}}
	scanner, cleanup, err := ticketparser.NewScanner(cfg, nil, nil, nil)
	require.NoError(t, err)
	defer cleanup()

	assert.True(t, scanner.ImageOptional())
	res, err := scanner.Scan(context.Background(), core.ScanInput{})
	require.NoError(t, err)
	require.NotNil(t, res.Fields.EventDate)
	assert.Equal(t, "2025-08-10", res.Fields.EventDate.String())
	require.NotNil(t, res.Fields.Venue)
	assert.Equal(t, "東急シアターオーブ", *res.Fields.Venue)
}

func TestNewScannerCatalogFile(t *testing.T) {
	dir := t.TempDir()
	catalog := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(catalog, []byte("version: test-1\nvenues:\n  - Zepp Haneda\n"), 0o600))

	cfg := &config.Config{CatalogFile: catalog, OCR: config.OCRConfig{Backend: config.OCRBackendNone}}
	scanner, _, err := ticketparser.NewScanner(cfg, nil, nil, nil)
	require.NoError(t, err)

	res := scanner.ExtractText("Zepp Haneda\n日本武道館")
	assert.Equal(t, "test-1", res.CatalogVersion)
	require.NotNil(t, res.Fields.Venue)
	assert.Equal(t, "Zepp Haneda", *res.Fields.Venue)

	res, err = scanner.Scan(context.Background(), core.ScanInput{Image: []byte("img")})
	require.NoError(t, err)
	assert.Equal(t, core.NoTextPlaceholder, res.RawText)
	assert.True(t, res.Fields.Empty())
}

func TestNewScannerErrors(t *testing.T) {
	_, _, err := ticketparser.NewScanner(&config.Config{CatalogFile: "/does/not/exist.yaml"}, nil, nil, nil)
	assert.Error(t, err)

	_, _, err = ticketparser.NewScanner(&config.Config{OCR: config.OCRConfig{Backend: "carbon"}}, nil, nil, nil)
	assert.Error(t, err)
}
