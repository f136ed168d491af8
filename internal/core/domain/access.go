package domain

// Role is the caller's position in the claim workflow.
type Role string

const (
	RolePolicyHolder  Role = "POLICY_HOLDER"
	RoleClaimAssessor Role = "CLAIM_ASSESSOR"
)

// Caller identifies the authenticated principal behind a request.
// Authentication itself happens outside this module.
type Caller struct {
	UserID string
	Role   Role
}

// MaxDocumentsPerClaim is the per-claim document ceiling. Enforced
// per request; two concurrent uploads to the same claim can transiently
// exceed it (accepted tolerance band).
const MaxDocumentsPerClaim = 15

// IsOwner reports whether the caller owns the resource.
func IsOwner(resourceOwnerID, callerID string) bool {
	return resourceOwnerID != "" && resourceOwnerID == callerID
}

// IsAssessor reports whether the caller may review claims and trigger
// report generation.
func IsAssessor(role Role) bool {
	return role == RoleClaimAssessor
}

// CanRead reports whether the caller may read a resource: owners and
// assessors can, nobody else.
func CanRead(resourceOwnerID string, caller Caller) bool {
	return IsOwner(resourceOwnerID, caller.UserID) || IsAssessor(caller.Role)
}

// WithinCapacity reports whether adding incoming documents keeps the
// claim at or under the ceiling.
func WithinCapacity(currentCount, incomingCount int) bool {
	if currentCount < 0 || incomingCount < 0 {
		return false
	}
	return currentCount+incomingCount <= MaxDocumentsPerClaim
}
