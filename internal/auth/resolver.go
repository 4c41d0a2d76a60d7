package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/paintstock/internal/model"
	"github.com/erazemk/paintstock/internal/store"
)

// DefaultAdminSecret is the shared admin secret used when none is configured.
const DefaultAdminSecret = "admin123"

// Resolver turns the name a client signs in with into an actor. Entering
// the shared admin secret as the name grants the admin role; any other
// name is an ordinary user. The bcrypt hash is what gets persisted; a
// SHA-256 digest is kept in memory so per-request resolution stays cheap.
type Resolver struct {
	hash   []byte
	digest [sha256.Size]byte
	cost   int
}

// NewResolver hashes secret with the given bcrypt cost.
func NewResolver(secret string, cost int) (*Resolver, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return nil, fmt.Errorf("hashing admin secret: %w", err)
	}
	return &Resolver{hash: hash, digest: sha256.Sum256([]byte(secret)), cost: cost}, nil
}

// LoadResolver reads the stored admin secret hash and replaces it if it
// no longer matches secret, so changing the configured secret takes effect
// on the next start.
func LoadResolver(ctx context.Context, q store.Querier, secret string, cost int) (*Resolver, error) {
	stored, ok, err := store.GetSetting(ctx, q, store.SettingAdminSecretHash)
	if err != nil {
		return nil, err
	}
	if ok && bcrypt.CompareHashAndPassword([]byte(stored), []byte(secret)) == nil {
		return &Resolver{hash: []byte(stored), digest: sha256.Sum256([]byte(secret)), cost: cost}, nil
	}

	r, err := NewResolver(secret, cost)
	if err != nil {
		return nil, err
	}
	if err := store.SetSetting(ctx, q, store.SettingAdminSecretHash, string(r.hash)); err != nil {
		return nil, err
	}
	return r, nil
}

// Resolve returns the actor for a sign-in name. It runs on every request
// that identifies itself by name, so it compares digests in constant time
// instead of running bcrypt.
func (r *Resolver) Resolve(name string) model.Actor {
	return r.resolve(name, func(name string) bool {
		sum := sha256.Sum256([]byte(name))
		return subtle.ConstantTimeCompare(sum[:], r.digest[:]) == 1
	})
}

// Authenticate is Resolve checked against the stored bcrypt hash. Sign-in
// uses it.
func (r *Resolver) Authenticate(name string) model.Actor {
	return r.resolve(name, func(name string) bool {
		return bcrypt.CompareHashAndPassword(r.hash, []byte(name)) == nil
	})
}

func (r *Resolver) resolve(name string, isSecret func(string) bool) model.Actor {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Anonymous
	}
	if isSecret(name) {
		return model.Actor{Name: model.AdminDisplayName, Role: model.RoleAdmin}
	}
	return model.Actor{Name: name, Role: model.RoleUser}
}
