package models

import "time"

// ProgramReport is an append-only pointer to a generated report file,
// unique by name within its program.
type ProgramReport struct {
	ProgramKey  string    `db:"program_key" json:"-"`
	Name        string    `db:"name" json:"name"`
	CreatedDate time.Time `db:"created_date" json:"created_date"`
	DownloadURL string    `db:"download_url" json:"download_url"`
}

// ReportFilter provides filters for listing program reports.
type ReportFilter struct {
	ProgramKey     string
	MinCreatedDate *time.Time
}
