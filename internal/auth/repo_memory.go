package auth

import (
	"context"
	"sync"
	"time"

	"github.com/seein-app/seein-backend/internal/shared"
)

// MemoryRepository is a mutex-guarded in-memory credential store. It enforces
// email uniqueness while holding the lock, mirroring what the unique index
// guarantees in PostgreSQL, so concurrent duplicate registrations cannot both
// succeed.
type MemoryRepository struct {
	mu     sync.Mutex
	users  map[string]*User
	nextID int64
}

// NewMemoryRepository constructs an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]*User)}
}

// FindByEmail fetches a user by normalized email.
func (r *MemoryRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

// Create inserts a user, failing with shared.ErrDuplicateEmail when the email
// is taken, tombstoned accounts included.
func (r *MemoryRepository) Create(ctx context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Email]; ok {
		return shared.ErrDuplicateEmail
	}
	r.nextID++
	now := time.Now()
	user.ID = r.nextID
	user.IsActive = true
	user.CreatedAt = now
	user.UpdatedAt = now
	clone := *user
	r.users[user.Email] = &clone
	return nil
}

// UpdateProfile applies the patch atomically under the lock.
func (r *MemoryRepository) UpdateProfile(ctx context.Context, email string, patch ProfilePatch) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	if patch.Email != nil && *patch.Email != email {
		if _, taken := r.users[*patch.Email]; taken {
			return nil, shared.ErrDuplicateEmail
		}
		delete(r.users, email)
		user.Email = *patch.Email
		r.users[user.Email] = user
	}
	if patch.DisplayName != nil {
		name := *patch.DisplayName
		user.DisplayName = &name
	}
	user.UpdatedAt = time.Now()
	clone := *user
	return &clone, nil
}

// UpdatePasswordHash replaces the stored hash.
func (r *MemoryRepository) UpdatePasswordHash(ctx context.Context, email, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[email]
	if !ok {
		return shared.ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now()
	return nil
}

// Deactivate flips the active flag, keeping the row.
func (r *MemoryRepository) Deactivate(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[email]
	if !ok {
		return shared.ErrNotFound
	}
	user.IsActive = false
	user.UpdatedAt = time.Now()
	return nil
}

// Len reports the number of stored rows, tombstones included.
func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

var _ Repository = (*MemoryRepository)(nil)
