// Package corpus holds the single document corpus the assistant answers from:
// the concatenated text of every ingested file plus the file names it came
// from, persisted so a restart does not lose the last successful ingestion.
package corpus

// Corpus is the concatenated text of all ingested documents together with the
// source file names in their original selection order. Both fields are always
// written together; text is non-empty exactly when SourceNames is non-empty.
type Corpus struct {
	Text        string
	SourceNames []string
}

// Present reports whether a corpus has been ingested.
func (c Corpus) Present() bool {
	return c.Text != "" && len(c.SourceNames) > 0
}
