package role

import (
	"errors"
	"fmt"
	"strings"
)

// Role is a platform role. The zero value is not a valid role.
type Role uint8

const (
	// SuperAdmin operates across every school and must name a school per request.
	SuperAdmin Role = iota + 1
	// SchoolAdmin administers a single school.
	SchoolAdmin
	// Teacher belongs to a single school.
	Teacher
	// Parent belongs to a single school through their children.
	Parent
	// Student belongs to a single school.
	Student

	maxRole = Student
)

// ErrUnknownRole is returned by [Parse] for strings outside the enumeration.
var ErrUnknownRole = errors.New("unknown role")

var names = [...]string{
	SuperAdmin:  "SUPER_ADMIN",
	SchoolAdmin: "SCHOOL_ADMIN",
	Teacher:     "TEACHER",
	Parent:      "PARENT",
	Student:     "STUDENT",
}

// All lists every valid role in declaration order.
func All() []Role {
	return []Role{SuperAdmin, SchoolAdmin, Teacher, Parent, Student}
}

// Parse converts a role name into a Role. Surrounding whitespace, letter case
// and '-' versus '_' separators are ignored, so "school-admin" and
// "SCHOOL_ADMIN" both parse.
func Parse(s string) (Role, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "-", "_")
	for r := SuperAdmin; r <= maxRole; r++ {
		if names[r] == key {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	return r >= SuperAdmin && r <= maxRole
}

// String returns the canonical wire name, e.g. "SCHOOL_ADMIN".
func (r Role) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
	return names[r]
}

// TenantScoped reports whether accounts with this role belong to exactly one
// school. Only SuperAdmin is not tenant scoped.
func (r Role) TenantScoped() bool {
	return r.Valid() && r != SuperAdmin
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRole, uint8(r))
	}
	return []byte(names[r]), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
