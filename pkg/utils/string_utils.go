package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewNullString is a helper for string pointers, returning nil if string is empty.
// Useful for fields that are optional and should be NULL in DB if not provided.
func NewNullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// NewMembershipID generates a public membership identifier of the form
// MEM<12 uppercase hex chars>. The public ID is distinct from the row ID.
func NewMembershipID() string {
	token := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "MEM" + token[:12]
}

// NewTicketNumber generates a support ticket number of the form
// XKYS-<8 uppercase hex chars>.
func NewTicketNumber() string {
	token := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "XKYS-" + token[:8]
}
