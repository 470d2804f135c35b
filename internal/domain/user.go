package domain

// UserProfile is the resolved identity of a ticket requester, looked up in
// the external user directory at creation time.
type UserProfile struct {
	ID       string
	Username string
}
