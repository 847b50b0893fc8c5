package models

import "fmt"

// Entity types known to the indexing pipeline. Unknown types still index
// through the generic field dump.
const (
	EntityTypeTask        = "task"
	EntityTypeNote        = "note"
	EntityTypeOpportunity = "opportunity"
	EntityTypeWorkflow    = "workflow"
	EntityTypeDocument    = "document"
)

// Entity is a record submitted for indexing by a collaborating CRUD
// service. Fields carries the source record's values keyed by column
// name; which fields contribute to the indexed text is decided per type
// by the retrieval layer.
type Entity struct {
	ID             string         `json:"id"`
	Type           string         `json:"type"`
	OrganizationID string         `json:"organization_id"`
	Fields         map[string]any `json:"fields"`
}

// Validate checks the minimum shape required for indexing.
func (e *Entity) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: entity id", ErrEmptyInput)
	}
	if e.Type == "" {
		return fmt.Errorf("%w: entity type", ErrEmptyInput)
	}
	return nil
}
