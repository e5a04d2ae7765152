package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/schoolAuth/role"
	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects the token signature algorithm.
type SigningMethod string

const (
	// MethodHS256 signs with a shared secret. It is the default.
	MethodHS256 SigningMethod = "hs256"
	// MethodEd25519 signs with an Ed25519 private key and verifies with the public key.
	MethodEd25519 SigningMethod = "ed25519"
)

// DefaultTTL is the fixed session lifetime.
const DefaultTTL = 12 * time.Hour

// Config configures a [Manager]. Key material may be left empty; the manager
// then fails every Mint and Verify call with [ErrSecretMissing].
type Config struct {
	SigningMethod SigningMethod
	// Secret is the HS256 shared secret.
	Secret []byte
	// PrivateKey and PublicKey are Ed25519 keys, raw or PEM encoded.
	PrivateKey []byte
	PublicKey  []byte

	TTL          time.Duration
	Issuer       string
	Leeway       time.Duration
	MaxFutureIAT time.Duration

	// Now overrides the clock. Tests use it to move past expiry.
	Now func() time.Time
}

// Manager signs and verifies session tokens. It is immutable after
// construction and safe for concurrent use.
type Manager struct {
	config  Config
	signKey interface{}
	verKey  interface{}
}

// Claims is the session token payload.
type Claims struct {
	Role       string `json:"role"`
	TenantID   string `json:"tid,omitempty"`
	TenantCode string `json:"tcode,omitempty"`
	jwt.RegisteredClaims
}

// Subject describes the account a token is minted for.
type Subject struct {
	ID         string
	Role       role.Role
	TenantID   string
	TenantCode string
}

// NewManager validates cfg and returns a Manager. Malformed keys are an
// error; absent keys are not.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.SigningMethod == "" {
		cfg.SigningMethod = MethodHS256
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.TTL < 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)

	m := &Manager{config: cfg}

	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.Secret) > 0 {
			m.signKey = cfg.Secret
			m.verKey = cfg.Secret
		}
	case MethodEd25519:
		if len(cfg.PrivateKey) > 0 {
			priv, err := parseEdPrivateKey(cfg.PrivateKey)
			if err != nil {
				return nil, err
			}
			m.signKey = priv
			m.verKey = priv.Public()
		}
		if len(cfg.PublicKey) > 0 {
			pub, err := parseEdPublicKey(cfg.PublicKey)
			if err != nil {
				return nil, err
			}
			m.verKey = pub
		}
	default:
		return nil, errors.New("unsupported signing method")
	}

	return m, nil
}

// TTL returns the configured token lifetime.
func (m *Manager) TTL() time.Duration {
	return m.config.TTL
}

// Configured reports whether both signing and verification keys are present.
func (m *Manager) Configured() bool {
	return m != nil && m.signKey != nil && m.verKey != nil
}

// Mint signs a token for s valid from now until now+TTL.
//
// Mint fails with [ErrSecretMissing] when no signing key is configured.
func (m *Manager) Mint(s Subject) (string, *Claims, error) {
	if m == nil || m.signKey == nil {
		return "", nil, ErrSecretMissing
	}
	if s.ID == "" {
		return "", nil, errors.New("token subject required")
	}
	if !s.Role.Valid() {
		return "", nil, fmt.Errorf("token subject has %w", role.ErrUnknownRole)
	}

	now := m.config.Now()
	claims := &Claims{
		Role:       s.Role.String(),
		TenantID:   s.TenantID,
		TenantCode: s.TenantCode,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.ID,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TTL)),
		},
	}

	token := jwt.NewWithClaims(m.method(), claims)
	signed, err := token.SignedString(m.signKey)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Verify checks signature, algorithm, issuer and expiry and returns the
// payload.
//
// Errors: [ErrSecretMissing], [ErrTokenExpired], [ErrTokenMalformed].
func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	if m == nil || m.verKey == nil {
		return nil, ErrSecretMissing
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method().Alg()}),
		jwt.WithTimeFunc(m.config.Now),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != m.method().Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return m.verKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenMalformed)
	}
	if claims.IssuedAt != nil && claims.IssuedAt.Time.After(m.config.Now().Add(m.config.MaxFutureIAT)) {
		return nil, fmt.Errorf("%w: iat too far in the future", ErrTokenMalformed)
	}

	return claims, nil
}

// ParsedRole converts the informational role claim into a [role.Role].
func (c *Claims) ParsedRole() (role.Role, error) {
	return role.Parse(c.Role)
}

func (m *Manager) method() jwt.SigningMethod {
	switch m.config.SigningMethod {
	case MethodEd25519:
		return jwt.SigningMethodEdDSA
	default:
		return jwt.SigningMethodHS256
	}
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
