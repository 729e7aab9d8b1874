package model

import "time"

// StudentRecord is a pre-enrolled identity imported by campus administration.
// LinkedAccountID is set at most once, when the record is claimed.
type StudentRecord struct {
	ID              int64
	StudentID       string // campus-issued identifier, unique
	FirstName       string
	LastName        string
	Birthday        Date
	LinkedAccountID *int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsLinked reports whether the record has been claimed by an account
func (r *StudentRecord) IsLinked() bool {
	return r.LinkedAccountID != nil
}

// NewStudentRecord is the input for importing a record
type NewStudentRecord struct {
	StudentID string
	FirstName string
	LastName  string
	Birthday  Date
}
