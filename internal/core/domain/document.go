package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusIndexed    DocumentStatus = "indexed"
	StatusFailed     DocumentStatus = "failed"
)

// Corpus names for reference material. Each corpus maps to one vector
// collection and feeds one domain tool's semantic path.
const (
	CorpusSchedule  = "schedule_of_benefits"
	CorpusADP       = "adp_manuals"
	CorpusFormulary = "odb_formulary"
)

// ReferenceDocument is one uploaded source file (schedule PDF, ADP manual,
// formulary extract) on its way into the semantic index.
type ReferenceDocument struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	MimeType    string         `json:"mime_type"`
	Corpus      string         `json:"corpus"`
	StoragePath string         `json:"storage_path"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ChatReply is what the guardrailed chat wrapper returns.
type ChatReply struct {
	Text     string    `json:"text"`
	Safety   string    `json:"safety"`
	Decision *Decision `json:"decision,omitempty"`
}
