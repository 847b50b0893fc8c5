package queue

import "github.com/workstreamlabs/retrieval/internal/models"

const (
	TypeEntityIndex    = "entity:index"
	TypeDocumentIngest = "document:ingest"
	TypeIndexRebuild   = "index:rebuild"
)

// EntityIndexPayload carries the full entity because entities live in
// the caller's system; by the time the task runs there is nowhere to
// fetch them from.
type EntityIndexPayload struct {
	Entity models.Entity `json:"entity"`
}

type DocumentIngestPayload struct {
	DocumentID     string `json:"document_id"`
	OrganizationID string `json:"organization_id"`
}

type IndexRebuildPayload struct {
	OrganizationID string   `json:"organization_id"`
	EntityTypes    []string `json:"entity_types,omitempty"`
}
