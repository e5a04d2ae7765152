package schoolAuth

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	internalaudit "github.com/MrEthical07/schoolAuth/internal/audit"
	"github.com/MrEthical07/schoolAuth/internal/rate"
	"github.com/MrEthical07/schoolAuth/jwt"
	"github.com/MrEthical07/schoolAuth/role"
)

// AccountStatus is the lifecycle state of an account.
type AccountStatus uint8

const (
	AccountActive AccountStatus = iota + 1
	// AccountInvited accounts signed in with a temporary password at most.
	AccountInvited
	AccountDisabled
	AccountSuspended
)

var accountStatusNames = map[AccountStatus]string{
	AccountActive:    "ACTIVE",
	AccountInvited:   "INVITED",
	AccountDisabled:  "DISABLED",
	AccountSuspended: "SUSPENDED",
}

// ParseAccountStatus converts the stored status name. Matching ignores case
// and surrounding space.
func ParseAccountStatus(s string) (AccountStatus, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	for status, name := range accountStatusNames {
		if name == normalized {
			return status, nil
		}
	}
	return 0, fmt.Errorf("unknown account status %q", s)
}

func (s AccountStatus) String() string {
	if name, ok := accountStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("AccountStatus(%d)", uint8(s))
}

func (s AccountStatus) MarshalText() ([]byte, error) {
	if _, ok := accountStatusNames[s]; !ok {
		return nil, fmt.Errorf("invalid account status %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *AccountStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseAccountStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Account is the credential and affiliation record returned by an
// [AccountProvider]. School-scoped accounts carry TenantID and TenantCode
// once active; super admins carry neither.
type Account struct {
	ID         string
	Identifier string
	Role       role.Role

	TenantID   string
	TenantCode string
	TenantName string

	Status AccountStatus

	PasswordHash          string
	TemporaryPasswordHash string
	RequiresPasswordReset bool
}

// HasTenant reports whether the account is assigned to a school.
func (a *Account) HasTenant() bool {
	return a != nil && a.TenantID != "" && a.TenantCode != ""
}

// Tenant is a school record.
type Tenant struct {
	ID   string
	Code string
	Name string
}

// TenantContext is the school a request operates on. It is derived per
// request from the live account record, or from the Tenant store for super
// admins; never from token claims.
type TenantContext struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// AuthResult is returned by [Engine.Authenticate].
type AuthResult struct {
	Account *Account
	Token   string
	Claims  *jwt.Claims
}

// LoginResult is returned by [Engine.Login].
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Account   *Account
	// RequiresPasswordReset is true when the account flag is set or the
	// temporary password was used.
	RequiresPasswordReset bool
}

// AccountProvider is the credential store. Implementations return
// [ErrAccountNotFound] (possibly wrapped) for unknown accounts.
type AccountProvider interface {
	GetAccountByID(ctx context.Context, id string) (*Account, error)
	// GetAccountByIdentifier looks up by the normalised (trimmed, lower-case)
	// email or username.
	GetAccountByIdentifier(ctx context.Context, identifier string) (*Account, error)
	// UpdatePassword stores newHash, clears the temporary password and the
	// reset flag, and promotes INVITED accounts to ACTIVE.
	UpdatePassword(ctx context.Context, accountID, newHash string) error
}

// TenantProvider is the school store. Implementations return
// [ErrTenantNotFound] (possibly wrapped) for unknown codes.
type TenantProvider interface {
	GetTenantByCode(ctx context.Context, code string) (*Tenant, error)
}

// LimitDecision is the outcome of a failed-login ledger check.
type LimitDecision = rate.Decision

// LoginLimiter is the failed-login ledger keyed by client address.
type LoginLimiter interface {
	CheckAllowed(ctx context.Context, addr string) (LimitDecision, error)
	RecordFailure(ctx context.Context, addr string) error
	Clear(ctx context.Context, addr string) error
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON lines to an [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// SlogSink is an [AuditSink] that writes events to a [slog.Logger].
type SlogSink = internalaudit.SlogSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewSlogSink creates a [SlogSink]. A nil logger uses [slog.Default].
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return internalaudit.NewSlogSink(logger)
}
