package uid

import "github.com/google/uuid"

// maxForwardedLen bounds caller-supplied request ids that are not UUIDs.
const maxForwardedLen = 64

// New generates a new unique identifier.
func New() string {
	return uuid.New().String()
}

// IsValid checks if a string is a valid UUID.
func IsValid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// FromHeader keeps a forwarded request id when it is usable, otherwise mints a new one.
func FromHeader(v string) string {
	if v == "" || len(v) > maxForwardedLen {
		return New()
	}
	for _, r := range v {
		if r < 0x21 || r > 0x7e {
			return New()
		}
	}
	return v
}
