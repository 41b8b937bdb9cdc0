package models

import "time"

// Material is an uploaded learning resource shared with a grade level or
// section. FilePath is relative to the uploads storage directory; PublicID is
// the stable identifier embedded in signed download URLs.
type Material struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description,omitempty"`
	SubjectID   *string   `db:"subject_id" json:"subject_id,omitempty"`
	GradeLevel  int       `db:"grade_level" json:"grade_level"`
	UploaderID  string    `db:"uploader_id" json:"uploader_id"`
	FilePath    string    `db:"file_path" json:"-"`
	PublicID    string    `db:"public_id" json:"public_id"`
	MIMEType    string    `db:"mime_type" json:"mime_type"`
	SizeBytes   int64     `db:"size_bytes" json:"size_bytes"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// MaterialFilter lists materials.
type MaterialFilter struct {
	SubjectID  string
	GradeLevel int
	UploaderID string
	Page       int
	PageSize   int
}
