package models

import (
	"time"

	"ticketscan/backend/internal/ticketparser/core"
	"ticketscan/backend/internal/ticketparser/extract"
)

// TicketScan is one row of ticket_scans.
type TicketScan struct {
	ID             string
	RawText        string
	EventDate      *time.Time
	Venue          *string
	Title          *string
	ImageURL       *string
	CatalogVersion string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TicketScanFromResult maps a scan result to its row. UpdatedAt is left for the database.
func TicketScanFromResult(r core.ScanResult) TicketScan {
	row := TicketScan{
		ID:             r.ID,
		RawText:        r.RawText,
		Venue:          r.Fields.Venue,
		Title:          r.Fields.Title,
		CatalogVersion: r.CatalogVersion,
		CreatedAt:      r.CreatedAt,
	}
	if r.Fields.EventDate != nil {
		t := r.Fields.EventDate.Time()
		row.EventDate = &t
	}
	if r.ImageURL != "" {
		u := r.ImageURL
		row.ImageURL = &u
	}
	return row
}

func (s TicketScan) Result() core.ScanResult {
	out := core.ScanResult{
		ID:      s.ID,
		RawText: s.RawText,
		Fields: core.FieldRecord{
			Venue: s.Venue,
			Title: s.Title,
		},
		CatalogVersion: s.CatalogVersion,
		CreatedAt:      s.CreatedAt,
	}
	if s.EventDate != nil {
		d := extract.DateOf(*s.EventDate)
		out.Fields.EventDate = &d
	}
	if s.ImageURL != nil {
		out.ImageURL = *s.ImageURL
	}
	return out
}
