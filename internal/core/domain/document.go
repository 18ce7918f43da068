package domain

import (
	"io"
	"time"
)

type SummaryStatus string

const (
	SummaryNone       SummaryStatus = "none"
	SummaryPending    SummaryStatus = "pending"
	SummaryProcessing SummaryStatus = "processing"
	SummaryReady      SummaryStatus = "ready"
	SummaryFailed     SummaryStatus = "failed"
)

type Document struct {
	ID            int64         `json:"id"`
	Title         string        `json:"title"`
	Content       *string       `json:"content"`
	FilePath      string        `json:"file_path,omitempty"`
	Filename      string        `json:"filename,omitempty"`
	MimeType      string        `json:"mime_type,omitempty"`
	Format        string        `json:"format,omitempty"`
	Summary       string        `json:"summary,omitempty"`
	SummaryStatus SummaryStatus `json:"summary_status"`
	SummaryError  string        `json:"summary_error,omitempty"`
	OwnerID       int64         `json:"owner_id"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// HasFile reports whether the document was created from an uploaded file.
func (d *Document) HasFile() bool {
	return d != nil && d.FilePath != ""
}

// Text returns the document content, or an empty string when none is stored.
func (d *Document) Text() string {
	if d == nil || d.Content == nil {
		return ""
	}
	return *d.Content
}

type DocumentInput struct {
	Title   string  `json:"title"`
	Content *string `json:"content"`
}

type DocumentPatch struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// Upload is a file submitted for ingestion.
type Upload struct {
	OwnerID  int64
	Title    string
	Filename string
	MimeType string
	Body     io.Reader
}

// SummaryResult is the outcome of a summarization run.
type SummaryResult struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
}
