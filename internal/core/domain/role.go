package domain

import "fmt"

// Role is the structured role column of the Identity Store.
type Role string

const (
	RoleManufacturer Role = "Manufacturer"
	RoleSeller       Role = "Seller"
	RoleCustomer     Role = "Customer"
)

// ParseRole returns the Role named by s. Matching is exact, the stored
// role column and on-ledger labels use the capitalised form.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleManufacturer, RoleSeller, RoleCustomer:
		return r, nil
	}
	return "", &ValidationError{Field: "role", Reason: fmt.Sprintf("unknown role %q", s)}
}

func (r Role) String() string { return string(r) }

// Label renders the on-ledger identity label for username under role,
// e.g. "alice (Seller)".
func Label(username string, r Role) string {
	return fmt.Sprintf("%s (%s)", username, r)
}

// Caller is the authenticated actor of a request, as carried by the session.
type Caller struct {
	Username string
	Role     Role
}

// Label is the caller's identity label.
func (c Caller) Label() string { return Label(c.Username, c.Role) }
