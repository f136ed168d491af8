package httpadapter

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/medassure/claims-backoffice/internal/core/domain"
)

const (
	userIDHeader   = "X-User-Id"
	userRoleHeader = "X-User-Role"
)

// callerFromRequest reads the identity the gateway attached after
// authenticating the request. The service itself never verifies
// credentials.
func callerFromRequest(r *http.Request) (domain.Caller, error) {
	userID := strings.TrimSpace(r.Header.Get(userIDHeader))
	if userID == "" {
		return domain.Caller{}, fmt.Errorf("missing %s header", userIDHeader)
	}

	role := domain.Role(strings.TrimSpace(r.Header.Get(userRoleHeader)))
	switch role {
	case domain.RolePolicyHolder, domain.RoleClaimAssessor:
	default:
		return domain.Caller{}, fmt.Errorf("unknown role %q", role)
	}

	return domain.Caller{UserID: userID, Role: role}, nil
}
