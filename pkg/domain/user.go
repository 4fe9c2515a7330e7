package domain

// User represents a registered NexaPDF account.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// FullName returns "First Last", falling back to the username when the
// profile has no name fields.
func (u User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Username
	}
}

// TokenPair is the access/refresh credential pair issued on login and signup.
// The access token is short-lived; the refresh token exchanges for a new
// access token when it expires.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}
