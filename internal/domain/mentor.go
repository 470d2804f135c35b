package domain

import "time"

// Mentor is a credentialed responder. Token is the capability proving the
// mentor's identity on ticket mutations; it is never rendered to users.
type Mentor struct {
	ID          string
	DisplayName string
	Token       string
	CreatedAt   time.Time
}
