package extract_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketscan/backend/internal/ticketparser/extract"
)

func TestDefaultCatalogTables(t *testing.T) {
	c := extract.DefaultCatalog()
	assert.Equal(t, extract.DefaultCatalogVersion, c.Version)
	require.Len(t, c.DateRules, 3)
	assert.Equal(t, []string{"ymd", "md-y", "yy-md"}, []string{c.DateRules[0].Name, c.DateRules[1].Name, c.DateRules[2].Name})
	assert.Equal(t, "日本武道館", c.Venues[0])
	assert.Contains(t, c.TitleKeywords, "WORLD TOUR")
	assert.Contains(t, c.StopPatterns, "主催")

	// callers get a copy
	c.Venues[0] = "changed"
	assert.Equal(t, "日本武道館", extract.DefaultCatalog().Venues[0])
	assert.Equal(t, extract.DefaultCatalogVersion, extract.Default().Version())
}

func TestParseCatalogKeepsOmittedDefaults(t *testing.T) {
	c, err := extract.ParseCatalog([]byte(`
version: "venues-2"
venues:
  - 横浜アリーナ
  - 日本武道館
title_keywords: []
`))
	require.NoError(t, err)
	assert.Equal(t, "venues-2", c.Version)
	assert.Equal(t, []string{"横浜アリーナ", "日本武道館"}, c.Venues)
	assert.Empty(t, c.TitleKeywords)
	assert.Len(t, c.DateRules, 3)
	assert.Equal(t, extract.DefaultCatalog().StopPatterns, c.StopPatterns)

	e, err := extract.New(c)
	require.NoError(t, err)
	assert.Equal(t, "venues-2", e.Version())

	venue := e.Venue("横浜アリーナ")
	require.NotNil(t, venue)
	assert.Equal(t, "横浜アリーナ", *venue)
}

func TestParseCatalogCustomDateRule(t *testing.T) {
	c, err := extract.ParseCatalog([]byte(`
version: "dates-1"
date_rules:
  - name: dmy
    pattern: '(?P<d>\d{1,2})/(?P<m>\d{1,2})/(?P<y>20\d{2})'
`))
	require.NoError(t, err)
	e, err := extract.New(c)
	require.NoError(t, err)

	got := e.EventDate("10/08/2025 and 2025年9月1日")
	require.NotNil(t, got)
	assert.Equal(t, "2025-08-10", got.String())
}

func TestParseCatalogRejectsBadShape(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "missing version", doc: "venues: [a]"},
		{name: "unknown key", doc: "version: \"1\"\nvenue: [a]"},
		{name: "venue not a string", doc: "version: \"1\"\nvenues: [{name: a}]"},
		{name: "empty keyword", doc: "version: \"1\"\ntitle_keywords: [\"\"]"},
		{name: "date rule without pattern", doc: "version: \"1\"\ndate_rules: [{name: x}]"},
		{name: "not yaml", doc: "version: [unterminated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extract.ParseCatalog([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestNewRejectsBadRules(t *testing.T) {
	_, err := extract.New(extract.Catalog{
		Version:   "bad",
		DateRules: []extract.DateRuleSpec{{Name: "x", Pattern: `(?P<m>\d+)`}},
	})
	assert.Error(t, err)

	_, err = extract.New(extract.Catalog{Version: "bad", StopPatterns: []string{"("}})
	assert.Error(t, err)
}

func TestNewFromFile(t *testing.T) {
	e, err := extract.NewFromFile("")
	require.NoError(t, err)
	assert.Same(t, extract.Default(), e)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"file-1\"\nvenues: [Zepp Haneda]\n"), 0o644))
	e, err = extract.NewFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "file-1", e.Version())

	_, err = extract.NewFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
