package domain

import "time"

// Task is the unit sessions are attributed to. Domain and Subdomain are
// free-form category labels.
type Task struct {
	ID        string
	UserID    string
	Name      string
	Domain    string
	Subdomain string
	CreatedAt time.Time
}
