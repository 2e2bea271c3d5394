package transcripts

// Record is a persisted transcript.
type Record struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Summary is the listing view of a record.
type Summary struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}
