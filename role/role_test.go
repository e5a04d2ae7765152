package role

import (
	"errors"
	"testing"
)

func TestParseNormalisesCaseAndSeparators(t *testing.T) {
	cases := map[string]Role{
		"SUPER_ADMIN":    SuperAdmin,
		"super_admin":    SuperAdmin,
		" school-admin ": SchoolAdmin,
		"Teacher":        Teacher,
		"parent":         Parent,
		"STUDENT":        Student,
	}
	for in, want := range cases {
		got, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", in, err)
		}
		if got != want {
			t.Fatalf("Parse(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseRejectsUnknown(t *testing.T) {
	for _, in := range []string{"", "admin", "root", "TEACHERS"} {
		if _, err := Parse(in); !errors.Is(err, ErrUnknownRole) {
			t.Fatalf("Parse(%q) expected ErrUnknownRole, got %v", in, err)
		}
	}
}

func TestRoleTextRoundTrip(t *testing.T) {
	for _, r := range All() {
		text, err := r.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v) failed: %v", r, err)
		}
		var back Role
		if err := back.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q) failed: %v", text, err)
		}
		if back != r {
			t.Fatalf("round trip mismatch: %v != %v", back, r)
		}
	}

	var zero Role
	if _, err := zero.MarshalText(); err == nil {
		t.Fatal("expected zero role to fail marshaling")
	}
}

func TestTenantScoped(t *testing.T) {
	if SuperAdmin.TenantScoped() {
		t.Fatal("super admin must not be tenant scoped")
	}
	for _, r := range []Role{SchoolAdmin, Teacher, Parent, Student} {
		if !r.TenantScoped() {
			t.Fatalf("%v should be tenant scoped", r)
		}
	}
}

func TestSetMembership(t *testing.T) {
	s := NewSet(Teacher, SchoolAdmin)
	if !s.Has(Teacher) || !s.Has(SchoolAdmin) {
		t.Fatalf("expected teacher and school admin in %v", s)
	}
	if s.Has(Student) || s.Has(SuperAdmin) {
		t.Fatalf("unexpected members in %v", s)
	}
	if s.Has(Role(0)) || s.Has(Role(200)) {
		t.Fatal("invalid roles must never be members")
	}

	s.Remove(Teacher)
	if s.Has(Teacher) {
		t.Fatal("expected teacher removed")
	}
	if got := s.String(); got != "{SCHOOL_ADMIN}" {
		t.Fatalf("unexpected String(): %s", got)
	}

	var empty Set
	if !empty.Empty() || empty.Has(Teacher) {
		t.Fatal("zero set must admit nobody")
	}
}

func TestParseSet(t *testing.T) {
	s, err := ParseSet("teacher", "SCHOOL_ADMIN")
	if err != nil {
		t.Fatalf("ParseSet failed: %v", err)
	}
	if s != NewSet(Teacher, SchoolAdmin) {
		t.Fatalf("unexpected set %v", s)
	}
	if _, err := ParseSet("teacher", "janitor"); err == nil {
		t.Fatal("expected unknown role error")
	}
}
