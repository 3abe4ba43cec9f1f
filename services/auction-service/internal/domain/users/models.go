package users

import (
	"fmt"
	"strings"

	"github.com/floroz/gavel-live/pkg/domainerr"
)

// User is a registered participant. Immutable once created.
type User struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	Contact     string `json:"contact"`
}

var (
	ErrUserNotFound       = fmt.Errorf("%w: user not found", domainerr.ErrNotFound)
	ErrInvalidDisplayName = fmt.Errorf("%w: display name is required", domainerr.ErrInvalidArgument)
)

const contactDomain = "gavel.local"

// DefaultContact derives an address from the display name: "Ana Lima" -> "ana.lima@gavel.local".
func DefaultContact(displayName string) string {
	local := strings.Join(strings.Fields(strings.ToLower(displayName)), ".")
	return local + "@" + contactDomain
}
