package tool

import "github.com/google/uuid"

func GenerateUUIDV7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// LockToken identifies a single lock holder; random so a stale holder can
// never release a lock re-acquired by someone else.
func LockToken() string {
	return uuid.NewString()
}
