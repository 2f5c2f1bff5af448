package domain

// ExportRequest describes one export run.
type ExportRequest struct {
	Repo Repository

	// Cursor resumes pagination after the given position. Empty starts
	// from the first page.
	Cursor string
}

// ExportResult summarises a completed run.
type ExportResult struct {
	RunID      string
	Pages      int
	Issues     int
	LastCursor string
	Remaining  int
}

// Progress is reported once per persisted page.
type Progress struct {
	RunID       string
	Page        int
	LastIssue   int
	Remaining   int
	Cost        int
	Cursor      string
	HasNextPage bool
}
