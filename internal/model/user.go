package model

import "time"

// User mirrors a document in the 'users' collection.  Roles holds role
// names resolved against the roles collection; Permissions holds ad-hoc
// permission strings granted directly to the user on top of whatever
// the roles contribute.
type User struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"password" json:"-"`
	Roles        []string  `bson:"roles" json:"roles"`
	Permissions  []string  `bson:"permissions" json:"permissions"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

// Principal is the authenticated actor attached to a request after the
// access token has been verified and the user re-loaded from the store.
type Principal struct {
	ID          string
	Email       string
	Roles       []string
	Permissions []string
}

// Principal strips the credential from a stored user.
func (u User) Principal() Principal {
	return Principal{ID: u.ID, Email: u.Email, Roles: u.Roles, Permissions: u.Permissions}
}
