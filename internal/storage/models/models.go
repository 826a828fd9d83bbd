package models

import "time"

// GenerationLogEntry is one row of the generation audit trail. It records
// which tier served the checklist and what the validator had to correct,
// independent of the checklist payload itself.
type GenerationLogEntry struct {
	ID              int64
	GenerationID    string
	ApplicationID   string
	CountryCode     string
	VisaCategory    string
	GenerationMode  string
	Attempts        int
	Retried         bool
	ParseFailures   int
	AutoCorrections int
	TrimmedExtras   int
	ReinsertedBase  int
	ItemCount       int
	DurationMs      int64
	CreatedAt       time.Time
}
