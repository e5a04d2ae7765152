package memory

import (
	"context"
	"fmt"

	schoolAuth "github.com/MrEthical07/schoolAuth"
	"github.com/MrEthical07/schoolAuth/role"
)

// Hasher produces stored password hashes; *password.Hasher satisfies it.
type Hasher interface {
	Hash(password string) (string, error)
}

// SeedSchool is a school entry in a seed file.
type SeedSchool struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

// SeedAccount is an account entry in a seed file. School is a school code.
// A TemporaryPassword marks the account as requiring a reset.
type SeedAccount struct {
	Identifier        string `yaml:"identifier"`
	Password          string `yaml:"password"`
	TemporaryPassword string `yaml:"temporary_password"`
	Role              string `yaml:"role"`
	School            string `yaml:"school"`
	Status            string `yaml:"status"`
}

// Seed is the development fixture loaded by the server in memory mode.
type Seed struct {
	Schools  []SeedSchool  `yaml:"schools"`
	Accounts []SeedAccount `yaml:"accounts"`
}

// Load adds seed to s, hashing passwords with h.
func (s *Store) Load(h Hasher, seed Seed) error {
	for _, sc := range seed.Schools {
		if _, err := s.AddSchool(schoolAuth.Tenant{Code: sc.Code, Name: sc.Name}); err != nil {
			return err
		}
	}

	for _, sa := range seed.Accounts {
		r, err := role.Parse(sa.Role)
		if err != nil {
			return fmt.Errorf("seed account %s: %w", sa.Identifier, err)
		}
		a := schoolAuth.Account{Identifier: sa.Identifier, Role: r}

		if sa.Status != "" {
			if a.Status, err = schoolAuth.ParseAccountStatus(sa.Status); err != nil {
				return fmt.Errorf("seed account %s: %w", sa.Identifier, err)
			}
		}

		if sa.School != "" {
			school, err := s.GetTenantByCode(context.Background(), sa.School)
			if err != nil {
				return fmt.Errorf("seed account %s: school %s: %w", sa.Identifier, sa.School, err)
			}
			a.TenantID = school.ID
		}

		if sa.Password != "" {
			if a.PasswordHash, err = h.Hash(sa.Password); err != nil {
				return fmt.Errorf("seed account %s: %w", sa.Identifier, err)
			}
		}
		if sa.TemporaryPassword != "" {
			if a.TemporaryPasswordHash, err = h.Hash(sa.TemporaryPassword); err != nil {
				return fmt.Errorf("seed account %s: %w", sa.Identifier, err)
			}
			a.RequiresPasswordReset = true
		}

		if _, err := s.AddAccount(a); err != nil {
			return err
		}
	}
	return nil
}
