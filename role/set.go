package role

import "strings"

// Set is an allow-list of roles stored as a bitmask. The zero value admits
// nobody.
type Set uint8

// NewSet builds a Set from the given roles. Invalid roles are ignored.
func NewSet(roles ...Role) Set {
	var s Set
	for _, r := range roles {
		s.Add(r)
	}
	return s
}

// ParseSet parses role names into a Set. The first unknown name aborts.
func ParseSet(names ...string) (Set, error) {
	var s Set
	for _, name := range names {
		r, err := Parse(name)
		if err != nil {
			return 0, err
		}
		s.Add(r)
	}
	return s, nil
}

// Add inserts r.
func (s *Set) Add(r Role) {
	if !r.Valid() {
		return
	}
	*s |= 1 << r
}

// Remove deletes r.
func (s *Set) Remove(r Role) {
	if !r.Valid() {
		return
	}
	*s &^= 1 << r
}

// Has reports whether r is in the set.
func (s Set) Has(r Role) bool {
	if !r.Valid() {
		return false
	}
	return s&(1<<r) != 0
}

// Empty reports whether the set admits nobody.
func (s Set) Empty() bool {
	return s == 0
}

// Roles returns the members in declaration order.
func (s Set) Roles() []Role {
	out := make([]Role, 0, maxRole)
	for r := SuperAdmin; r <= maxRole; r++ {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

func (s Set) String() string {
	roles := s.Roles()
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = r.String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}
