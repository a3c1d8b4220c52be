package models

// Database is one backend database. Exactly one is active at a time; the
// active database is where issue operations land.
type Database struct {
	Name   string
	Active bool
}
