package session

import "strings"

// User is the identity stored in the user slot. Name is optional.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// DisplayName returns Name, falling back to Email.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// Valid reports whether u carries the fields a rehydrated session needs.
func (u User) Valid() bool {
	return u.ID != "" && u.Email != ""
}

// Record is the persisted user/token pair.
type Record struct {
	User  User
	Token string
}

// LocalPart returns the part of email before the first '@', or email itself
// when it has none.
func LocalPart(email string) string {
	if i := strings.IndexByte(email, '@'); i >= 0 {
		return email[:i]
	}
	return email
}
