package bugs

import "time"

// BugID identifier type
type BugID string

// Bug is an uploaded bug-report dataset. The file itself lives in the blob
// store under ContentHash.
type Bug struct {
	ID          BugID     `json:"id"`
	Name        string    `json:"name"`
	Filename    string    `json:"filename"`
	Description string    `json:"description,omitempty"`
	ContentHash string    `json:"content_hash"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
