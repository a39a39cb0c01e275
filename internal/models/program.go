package models

// Program is a top-level enrollment container owned by an organization.
// Programs are read-only through the API; the system of record for their
// metadata is the external catalog service.
type Program struct {
	Key    string `db:"program_key" json:"program_key"`
	Title  string `db:"program_title" json:"program_title"`
	URL    string `db:"program_url" json:"program_url"`
	OrgKey string `db:"org_key" json:"-"`
}

// Course is a schedulable run of instructional content within a program.
// It can be addressed by either its internal key or its external key.
type Course struct {
	Key         string `db:"course_key" json:"course_id"`
	ExternalKey string `db:"external_course_key" json:"external_course_key"`
	Title       string `db:"course_title" json:"course_title"`
	URL         string `db:"course_url" json:"course_url"`
	ProgramKey  string `db:"program_key" json:"-"`
}

// ProgramFilter provides filters for listing programs.
type ProgramFilter struct {
	Org      string
	Page     int
	PageSize int
}
