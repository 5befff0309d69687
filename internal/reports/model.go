// Package reports implements assessment report ingestion and admin
// management: the vendor webhook that delivers completed assessments, the
// first-write-wins merge against existing records, and the admin list and
// delete operations.
package reports

import (
	"time"
)

// Assessment is one leadership assessment record. Score and the PDF URLs
// are nullable: a webhook can deliver the score before the PDFs finish
// rendering, and later calls fill in the missing fields.
type Assessment struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Score        *int      `json:"score"`
	ClientPDFURL *string   `json:"clientPdfUrl"`
	CoachPDFURL  *string   `json:"coachPdfUrl"`
	CreatedAt    time.Time `json:"createdAt"`
}

// WebhookRequest is the vendor's submission payload. Each PDF field may
// arrive as inline base64, a fetchable URL, or both (inline preferred).
// Score is declared as any because vendors send it as a number, a numeric
// string, or not at all; coercion happens in the service.
type WebhookRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Score           any    `json:"score"`
	ClientPDFURL    string `json:"clientPdfUrl"`
	ClientPDFBase64 string `json:"clientPdfBase64"`
	CoachPDFURL     string `json:"coachPdfUrl"`
	CoachPDFBase64  string `json:"coachPdfBase64"`
}

// DeleteRequest identifies the record to delete.
type DeleteRequest struct {
	ID string `json:"id"`
}

// ListFilter narrows the admin report listing. Zero values mean "no
// constraint". From and To are inclusive date bounds in "2006-01-02" form.
type ListFilter struct {
	// Query matches against the record's name, case-insensitively.
	Query string

	// From is the earliest creation date to include.
	From string

	// To is the latest creation date to include.
	To string
}
