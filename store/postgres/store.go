package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	schoolAuth "github.com/MrEthical07/schoolAuth"
	"github.com/MrEthical07/schoolAuth/role"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrCorruptRow is returned when a stored role or status cannot be parsed.
var ErrCorruptRow = errors.New("corrupt account row")

type Store struct {
	pool *pgxpool.Pool
}

// NewPool opens and pings a connection pool.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate applies the embedded schema. Statements are idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		sql, err := migrations.ReadFile(name)
		if err != nil {
			return err
		}
		if _, err := s.pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("migrate %s: %w", name, err)
		}
	}
	return nil
}

const accountColumns = `
    a.id::text, a.identifier, a.role, a.status, a.password_hash,
    COALESCE(a.temporary_password_hash, ''), a.requires_password_reset,
    COALESCE(s.id::text, ''), COALESCE(s.code, ''), COALESCE(s.name, '')
  FROM accounts a
  LEFT JOIN schools s ON s.id = a.school_id`

func scanAccount(row pgx.Row) (*schoolAuth.Account, error) {
	var (
		a              schoolAuth.Account
		roleName, stat string
	)
	err := row.Scan(
		&a.ID,
		&a.Identifier,
		&roleName,
		&stat,
		&a.PasswordHash,
		&a.TemporaryPasswordHash,
		&a.RequiresPasswordReset,
		&a.TenantID,
		&a.TenantCode,
		&a.TenantName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, schoolAuth.ErrAccountNotFound
		}
		return nil, err
	}

	if a.Role, err = role.Parse(roleName); err != nil {
		return nil, fmt.Errorf("%w: account %s: %v", ErrCorruptRow, a.ID, err)
	}
	if a.Status, err = schoolAuth.ParseAccountStatus(stat); err != nil {
		return nil, fmt.Errorf("%w: account %s: %v", ErrCorruptRow, a.ID, err)
	}
	return &a, nil
}

func (s *Store) GetAccountByID(ctx context.Context, id string) (*schoolAuth.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, schoolAuth.ErrAccountNotFound
	}
	row := s.pool.QueryRow(ctx, `SELECT`+accountColumns+`
  WHERE a.id = $1`, id)
	return scanAccount(row)
}

func (s *Store) GetAccountByIdentifier(ctx context.Context, identifier string) (*schoolAuth.Account, error) {
	row := s.pool.QueryRow(ctx, `SELECT`+accountColumns+`
  WHERE a.identifier = $1`, schoolAuth.NormalizeIdentifier(identifier))
	return scanAccount(row)
}

// UpdatePassword stores newHash, clears the temporary password and reset
// flag, and promotes INVITED accounts to ACTIVE.
func (s *Store) UpdatePassword(ctx context.Context, accountID, newHash string) error {
	tag, err := s.pool.Exec(ctx, `
    UPDATE accounts
    SET password_hash = $2,
        temporary_password_hash = NULL,
        requires_password_reset = false,
        status = CASE WHEN status = 'INVITED' THEN 'ACTIVE' ELSE status END,
        updated_at = now()
    WHERE id = $1
  `, accountID, newHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return schoolAuth.ErrAccountNotFound
	}
	return nil
}

func (s *Store) UpgradePasswordHash(ctx context.Context, accountID, newHash string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE accounts SET password_hash = $2, updated_at = now() WHERE id = $1`, accountID, newHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return schoolAuth.ErrAccountNotFound
	}
	return nil
}

func (s *Store) GetTenantByCode(ctx context.Context, code string) (*schoolAuth.Tenant, error) {
	var t schoolAuth.Tenant
	row := s.pool.QueryRow(ctx, `
    SELECT id::text, code, name
    FROM schools
    WHERE code = $1
  `, strings.ToUpper(strings.TrimSpace(code)))
	if err := row.Scan(&t.ID, &t.Code, &t.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, schoolAuth.ErrTenantNotFound
		}
		return nil, err
	}
	return &t, nil
}

// CreateSchool inserts t, generating an ID when empty.
func (s *Store) CreateSchool(ctx context.Context, t schoolAuth.Tenant) (*schoolAuth.Tenant, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.Code = strings.ToUpper(strings.TrimSpace(t.Code))
	_, err := s.pool.Exec(ctx, `INSERT INTO schools (id, code, name) VALUES ($1, $2, $3)`, t.ID, t.Code, t.Name)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateAccount inserts a, generating an ID when empty. TenantID must name
// an existing school or be empty.
func (s *Store) CreateAccount(ctx context.Context, a schoolAuth.Account) (*schoolAuth.Account, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == 0 {
		a.Status = schoolAuth.AccountActive
	}
	a.Identifier = schoolAuth.NormalizeIdentifier(a.Identifier)

	var schoolID, tempHash *string
	if a.TenantID != "" {
		schoolID = &a.TenantID
	}
	if a.TemporaryPasswordHash != "" {
		tempHash = &a.TemporaryPasswordHash
	}

	_, err := s.pool.Exec(ctx, `
    INSERT INTO accounts (id, identifier, role, school_id, status, password_hash, temporary_password_hash, requires_password_reset)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
  `, a.ID, a.Identifier, a.Role.String(), schoolID, a.Status.String(), a.PasswordHash, tempHash, a.RequiresPasswordReset)
	if err != nil {
		return nil, err
	}
	return s.GetAccountByID(ctx, a.ID)
}
