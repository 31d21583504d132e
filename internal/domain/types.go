package domain

// WorkItemStatus enumerates lifecycle states for onboarding work items.
type WorkItemStatus string

const (
	WorkItemStatusNew             WorkItemStatus = "NEW"
	WorkItemStatusAssigned        WorkItemStatus = "ASSIGNED"
	WorkItemStatusInProgress      WorkItemStatus = "IN_PROGRESS"
	WorkItemStatusPendingApproval WorkItemStatus = "PENDING_APPROVAL"
	WorkItemStatusApproved        WorkItemStatus = "APPROVED"
	WorkItemStatusCompleted       WorkItemStatus = "COMPLETED"
	WorkItemStatusDeclined        WorkItemStatus = "DECLINED"
	WorkItemStatusCancelled       WorkItemStatus = "CANCELLED"
	WorkItemStatusDueForRefresh   WorkItemStatus = "DUE_FOR_REFRESH"
)

// Priority enumerates review urgency.
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// RiskLevel classifies an applicant at creation time. It is fixed for the
// life of the work item and drives priority and the approval gate.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "LOW"
	RiskLevelMedium   RiskLevel = "MEDIUM"
	RiskLevelHigh     RiskLevel = "HIGH"
	RiskLevelCritical RiskLevel = "CRITICAL"
	RiskLevelUnknown  RiskLevel = "UNKNOWN"
)

// ReviewerRole enumerates internal operator roles.
type ReviewerRole string

const (
	RoleAnalyst           ReviewerRole = "ANALYST"
	RoleComplianceManager ReviewerRole = "COMPLIANCE_MANAGER"
	RoleAdmin             ReviewerRole = "ADMIN"
)

// PriorityForRisk derives the default priority from the risk level.
func PriorityForRisk(risk RiskLevel) Priority {
	switch risk {
	case RiskLevelCritical:
		return PriorityCritical
	case RiskLevelHigh:
		return PriorityHigh
	case RiskLevelLow:
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// RiskRequiresApproval reports whether the risk tier must pass through the
// compliance approval gate before completion.
func RiskRequiresApproval(risk RiskLevel) bool {
	return risk == RiskLevelHigh || risk == RiskLevelCritical
}

// approvalRoles maps elevated risk tiers to the roles allowed to approve
// them. Tiers absent from the table carry no role restriction.
var approvalRoles = map[RiskLevel][]ReviewerRole{
	RiskLevelHigh:     {RoleComplianceManager, RoleAdmin},
	RiskLevelCritical: {RoleComplianceManager, RoleAdmin},
}

// CanApprove reports whether the given role may approve a work item at the
// given risk level.
func CanApprove(risk RiskLevel, role ReviewerRole) bool {
	allowed, ok := approvalRoles[risk]
	if !ok {
		return true
	}
	for _, candidate := range allowed {
		if candidate == role {
			return true
		}
	}
	return false
}
