package models

// DefaultRoles is used when the backend's role listing is empty or
// unavailable.
var DefaultRoles = []string{"Developer", "Owner", "Admin", "Viewer"}

// User is a directory entry from the backend's user listing.
type User struct {
	Name string
	Role string
}
