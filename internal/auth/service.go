package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/seein-app/seein-backend/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	issuer *TokenIssuer
}

// NewService constructs a new Service.
func NewService(repo Repository, issuer *TokenIssuer) *Service {
	return &Service{repo: repo, issuer: issuer}
}

// Register creates a new account for the normalized email. The lookup is a
// fast path; the repository's uniqueness guarantee is authoritative under
// concurrent registrations.
func (s *Service) Register(ctx context.Context, email, password string, displayName *string) (*Summary, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.FindByEmail(ctx, normalized); err == nil {
		return nil, shared.ErrDuplicateEmail
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &User{
		Email:        normalized,
		PasswordHash: string(hash),
		DisplayName:  displayName,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user.summary(), nil
}

// Authenticate validates email/password credentials and mints a bearer token
// whose subject is the normalized email. Unknown user, wrong password and
// deactivated account all collapse to shared.ErrInvalidCredentials so callers
// cannot enumerate accounts.
func (s *Service) Authenticate(ctx context.Context, email, password string) (string, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return "", shared.ErrInvalidCredentials
	}
	user, err := s.repo.FindByEmail(ctx, normalized)
	if err != nil {
		return "", shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", shared.ErrInvalidCredentials
	}
	return s.issuer.Issue(user.Email)
}

// CurrentUser resolves a decoded token subject back to an active account.
func (s *Service) CurrentUser(ctx context.Context, subject string) (*Summary, error) {
	user, err := s.repo.FindByEmail(ctx, subject)
	if err != nil {
		return nil, shared.ErrNotFound
	}
	if !user.IsActive {
		return nil, shared.ErrNotFound
	}
	return user.summary(), nil
}

// UpdateProfile applies an email and/or display name change. Deactivated
// accounts cannot be updated even with a still-live token. An email change
// re-validates format and re-checks uniqueness before committing; both fields
// are applied atomically by the repository.
func (s *Service) UpdateProfile(ctx context.Context, email string, patch ProfilePatch) (*Summary, error) {
	current, err := s.repo.FindByEmail(ctx, email)
	if err != nil || !current.IsActive {
		return nil, shared.ErrNotFound
	}
	if patch.Email != nil {
		normalized, err := NormalizeEmail(*patch.Email)
		if err != nil {
			return nil, err
		}
		if normalized == email {
			patch.Email = nil
		} else {
			if _, err := s.repo.FindByEmail(ctx, normalized); err == nil {
				return nil, shared.ErrDuplicateEmail
			} else if !errors.Is(err, shared.ErrNotFound) {
				return nil, err
			}
			patch.Email = &normalized
		}
	}
	user, err := s.repo.UpdateProfile(ctx, email, patch)
	if err != nil {
		return nil, err
	}
	return user.summary(), nil
}

// ChangePassword re-verifies the current password before accepting the new
// one. Any verification failure returns false without detail.
func (s *Service) ChangePassword(ctx context.Context, email, currentPassword, newPassword string) bool {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return false
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return false
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return false
	}
	return s.repo.UpdatePasswordHash(ctx, email, string(hash)) == nil
}

// DeleteAccount re-verifies the password and soft deletes the account. The
// row and its email remain reserved.
func (s *Service) DeleteAccount(ctx context.Context, email, password string) bool {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return false
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return false
	}
	return s.repo.Deactivate(ctx, email) == nil
}
