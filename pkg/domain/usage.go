package domain

// User types reported by the usage endpoint.
const (
	UserTypeAuthenticated = "authenticated"
	UserTypeAnonymous     = "anonymous"
)

// GuestDailyLimit is the number of operations an unauthenticated visitor may
// run per calendar day. Authenticated users are unlimited.
const GuestDailyLimit = 10

// UsageInfo is the backend's usage-query response.
type UsageInfo struct {
	UserType            string `json:"user_type"`
	Username            string `json:"username,omitempty"`
	OperationsUsed      int    `json:"operations_used,omitempty"`
	OperationsToday     int    `json:"operations_today,omitempty"`
	OperationsLimit     int    `json:"operations_limit,omitempty"`
	TotalOperations     int    `json:"total_operations,omitempty"`
	IsUnlimited         bool   `json:"is_unlimited"`
	RemainingOperations int    `json:"remaining_operations"`
}

// Authenticated reports whether the backend attributed the request to a
// signed-in account.
func (u UsageInfo) Authenticated() bool {
	return u.UserType == UserTypeAuthenticated
}

// DefaultGuestUsage is the optimistic projection shown before the first
// backend response arrives, so new visitors never see a loading flash.
func DefaultGuestUsage() UsageInfo {
	return UsageInfo{
		UserType:            UserTypeAnonymous,
		OperationsUsed:      0,
		OperationsLimit:     GuestDailyLimit,
		IsUnlimited:         false,
		RemainingOperations: GuestDailyLimit,
	}
}
