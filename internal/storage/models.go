package storage

import "time"

// SheetRecord represents an uploaded sheet-music document's metadata.
// The document bytes themselves live in the content store under ContentKey.
type SheetRecord struct {
	ID          string
	Title       string
	ContentKey  string
	SizeBytes   int64
	ContentKind string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SheetSummary is a SheetRecord plus the number of setlists the sheet
// currently belongs to.
type SheetSummary struct {
	SheetRecord
	SetlistCount int
}

// SetlistRecord represents a named, ordered collection of sheets.
type SetlistRecord struct {
	ID        string
	Name      string
	Notes     string
	CreatedAt time.Time
}

// SetlistSummary is a SetlistRecord plus its current member count.
type SetlistSummary struct {
	SetlistRecord
	SheetCount int
}

// OrderedSheet is a sheet joined with its position in a specific setlist.
// Positions within one setlist are always contiguous 0..n-1.
type OrderedSheet struct {
	SheetRecord
	Position int
}
