package retrieval

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/workstreamlabs/retrieval/internal/models"
)

type fieldSpec struct {
	key   string
	label string
}

// entityFields lists, per entity type, which fields contribute to the
// canonical text and in what order. Fields that are absent or empty are
// skipped.
var entityFields = map[string][]fieldSpec{
	models.EntityTypeTask: {
		{"title", "Title"},
		{"description", "Description"},
		{"status", "Status"},
		{"priority", "Priority"},
		{"assignee", "Assignee"},
		{"due_date", "Due date"},
	},
	models.EntityTypeNote: {
		{"title", "Title"},
		{"content", "Content"},
		{"tags", "Tags"},
	},
	models.EntityTypeOpportunity: {
		{"name", "Name"},
		{"description", "Description"},
		{"stage", "Stage"},
		{"amount", "Amount"},
		{"close_date", "Close date"},
	},
	models.EntityTypeWorkflow: {
		{"name", "Name"},
		{"description", "Description"},
		{"status", "Status"},
		{"trigger", "Trigger"},
	},
}

// EntityText builds the canonical text representation used for chunking
// and embedding. Record-like entities become labeled lines; documents are
// treated as prose, title followed by body. Unknown types fall back to
// every field in key order so nothing silently indexes as empty.
func EntityText(entity models.Entity) string {
	if entity.Type == models.EntityTypeDocument {
		return documentText(entity)
	}

	specs, ok := entityFields[entity.Type]
	if !ok {
		return genericText(entity)
	}

	var lines []string
	for _, spec := range specs {
		if v := fieldValue(entity.Fields[spec.key]); v != "" {
			lines = append(lines, spec.label+": "+v)
		}
	}
	return strings.Join(lines, "\n")
}

func documentText(entity models.Entity) string {
	title := fieldValue(entity.Fields["title"])
	content := fieldValue(entity.Fields["content"])
	switch {
	case title == "":
		return content
	case content == "":
		return title
	default:
		return title + "\n\n" + content
	}
}

func genericText(entity models.Entity) string {
	keys := make([]string, 0, len(entity.Fields))
	for k := range entity.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var lines []string
	for _, k := range keys {
		if v := fieldValue(entity.Fields[k]); v != "" {
			lines = append(lines, k+": "+v)
		}
	}
	return strings.Join(lines, "\n")
}

func fieldValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case []string:
		return strings.Join(t, ", ")
	case []any:
		// JSON arrays decode to []any; lists like tags join to one line.
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := fieldValue(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}
