package utils

import "github.com/google/uuid"

// NewClientID returns a globally unique connection id prefixed with the
// owning user, which keeps log lines greppable per user.
func NewClientID(userID string) string {
	return userID + "-" + uuid.NewString()
}
