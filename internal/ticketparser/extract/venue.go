package extract

import (
	"strings"
)

var defaultVenues = []string{
	"日本武道館",
	"東京巨蛋",
	"代代木第一體育館",
	"橫濱体育館",
	"大阪城Hall",
	"東急シアターオーブ",
	"東京国際フォーラム",
	"東京ドームシティホール",
}

// Venue returns the first catalog venue contained in text. Catalog order decides between
// several matches, not their position in the text.
func (e *Extractor) Venue(text string) *string {
	for _, venue := range e.venues {
		if strings.Contains(text, venue) {
			v := venue
			return &v
		}
	}
	return nil
}
