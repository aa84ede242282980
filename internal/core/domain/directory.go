package domain

// DirectoryUser is an entry of the unauthenticated user directory.
// ID is the hex form of the backing document id.
type DirectoryUser struct {
	ID    string
	Name  string
	Email string
}
