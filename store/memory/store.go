package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	schoolAuth "github.com/MrEthical07/schoolAuth"
	"github.com/MrEthical07/schoolAuth/role"
	"github.com/google/uuid"
)

var (
	ErrDuplicateIdentifier = errors.New("identifier already registered")
	ErrDuplicateSchool     = errors.New("school code already registered")
)

// Store holds accounts and schools behind a single RWMutex. Every getter
// returns a copy.
type Store struct {
	mu           sync.RWMutex
	accounts     map[string]*schoolAuth.Account
	byIdentifier map[string]string
	schools      map[string]*schoolAuth.Tenant
	schoolsByID  map[string]string
}

func New() *Store {
	return &Store{
		accounts:     make(map[string]*schoolAuth.Account),
		byIdentifier: make(map[string]string),
		schools:      make(map[string]*schoolAuth.Tenant),
		schoolsByID:  make(map[string]string),
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// AddSchool registers t. The code is matched case-insensitively; an empty
// ID is generated.
func (s *Store) AddSchool(t schoolAuth.Tenant) (*schoolAuth.Tenant, error) {
	t.Code = normalizeCode(t.Code)
	if t.Code == "" {
		return nil, errors.New("school code required")
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schools[t.Code]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateSchool, t.Code)
	}
	s.schools[t.Code] = &t
	s.schoolsByID[t.ID] = t.Code

	out := t
	return &out, nil
}

// AddAccount registers a. The identifier is normalised, an empty ID is
// generated, and a TenantID naming a registered school fills in the
// school's code and name.
func (s *Store) AddAccount(a schoolAuth.Account) (*schoolAuth.Account, error) {
	a.Identifier = schoolAuth.NormalizeIdentifier(a.Identifier)
	if a.Identifier == "" {
		return nil, errors.New("identifier required")
	}
	if !a.Role.Valid() {
		return nil, role.ErrUnknownRole
	}
	if a.Status == 0 {
		a.Status = schoolAuth.AccountActive
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byIdentifier[a.Identifier]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateIdentifier, a.Identifier)
	}
	if a.TenantID != "" {
		if code, ok := s.schoolsByID[a.TenantID]; ok {
			school := s.schools[code]
			a.TenantCode = school.Code
			a.TenantName = school.Name
		}
	}
	s.accounts[a.ID] = &a
	s.byIdentifier[a.Identifier] = a.ID

	out := a
	return &out, nil
}

func (s *Store) GetAccountByID(_ context.Context, id string) (*schoolAuth.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, schoolAuth.ErrAccountNotFound
	}
	out := *a
	return &out, nil
}

func (s *Store) GetAccountByIdentifier(_ context.Context, identifier string) (*schoolAuth.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byIdentifier[schoolAuth.NormalizeIdentifier(identifier)]
	if !ok {
		return nil, schoolAuth.ErrAccountNotFound
	}
	out := *s.accounts[id]
	return &out, nil
}

// UpdatePassword stores newHash, drops the temporary password and reset
// flag, and promotes an invited account to active.
func (s *Store) UpdatePassword(_ context.Context, accountID, newHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return schoolAuth.ErrAccountNotFound
	}
	a.PasswordHash = newHash
	a.TemporaryPasswordHash = ""
	a.RequiresPasswordReset = false
	if a.Status == schoolAuth.AccountInvited {
		a.Status = schoolAuth.AccountActive
	}
	return nil
}

func (s *Store) UpgradePasswordHash(_ context.Context, accountID, newHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return schoolAuth.ErrAccountNotFound
	}
	a.PasswordHash = newHash
	return nil
}

// SetStatus changes an account's status, e.g. to disable it.
func (s *Store) SetStatus(accountID string, status schoolAuth.AccountStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return schoolAuth.ErrAccountNotFound
	}
	a.Status = status
	return nil
}

func (s *Store) GetTenantByCode(_ context.Context, code string) (*schoolAuth.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.schools[normalizeCode(code)]
	if !ok {
		return nil, schoolAuth.ErrTenantNotFound
	}
	out := *t
	return &out, nil
}

// Len returns the number of accounts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}
