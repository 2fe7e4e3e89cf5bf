package domain

// User represents the authenticated student
type User struct {
	ID       int
	FullName string
	Email    string
}
