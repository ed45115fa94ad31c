package extract_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketscan/backend/internal/ticketparser/extract"
)

func TestExtractVenue(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "single line", input: "日本武道館", want: "日本武道館"},
		{name: "embedded", input: "会場：東京国際フォーラム ホールA", want: "東京国際フォーラム"},
		{name: "latin suffix", input: "大阪城Hall 18:00開演", want: "大阪城Hall"},
		{
			name:  "catalog order beats text order",
			input: "東京国際フォーラム\n(旧 日本武道館 公演)",
			want:  "日本武道館",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extract.ExtractVenue(tt.input)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestExtractVenueExactSubstringOnly(t *testing.T) {
	inputs := []string{
		"",
		"日本 武道館",
		"大阪城hall",
		"東京ドーム",
	}
	for _, input := range inputs {
		assert.Nil(t, extract.ExtractVenue(input), "input %q", input)
	}
}

func TestVenueCustomCatalogOrder(t *testing.T) {
	e, err := extract.New(extract.Catalog{
		Version: "test",
		Venues:  []string{"横浜アリーナ", "日本武道館"},
	})
	require.NoError(t, err)

	got := e.Venue("日本武道館 → 横浜アリーナ 振替公演")
	require.NotNil(t, got)
	assert.Equal(t, "横浜アリーナ", *got)
}
