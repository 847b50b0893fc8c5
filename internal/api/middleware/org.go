package middleware

import (
	"net/http"
	"strings"

	"github.com/workstreamlabs/retrieval/internal/organization"
)

// OrgHeader names the header collaborating services use to scope a
// request to one organization.
const OrgHeader = "X-Org-ID"

// Organization resolves the request's organization id from OrgHeader and
// stores it on the context. Requests without the header fall back to the
// default organization.
func Organization(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		orgID := strings.TrimSpace(r.Header.Get(OrgHeader))
		if orgID == "" {
			orgID = organization.DefaultID
		}
		next.ServeHTTP(w, r.WithContext(organization.WithID(r.Context(), orgID)))
	})
}
