// Package auth registers and authenticates users against the gateway's
// user store. Password hashes never leave this package.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"carteira/internal/core"
	"carteira/internal/gateway"
	"carteira/internal/log"
)

var (
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type Provider struct {
	users  gateway.UserStore
	logger *log.Logger
}

func NewProvider(users gateway.UserStore, logger *log.Logger) *Provider {
	return &Provider{
		users:  users,
		logger: logger.WithComponent(log.ComponentAuth),
	}
}

// Register validates the inputs, hashes the password and stores a
// confirmed user. Accounts are confirmed on creation since there is no
// mail delivery in this deployment.
func (p *Provider) Register(ctx context.Context, email, password, fullName string) (core.Identity, error) {
	if err := ValidateRegistration(email, password, fullName); err != nil {
		return core.Identity{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return core.Identity{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := p.users.CreateUser(ctx, gateway.User{
		Email:          strings.ToLower(strings.TrimSpace(email)),
		Name:           strings.TrimSpace(fullName),
		PasswordHash:   string(hash),
		EmailConfirmed: true,
	})
	if err != nil {
		if gateway.IsConflict(err) {
			return core.Identity{}, ErrEmailTaken
		}
		return core.Identity{}, fmt.Errorf("create user: %w", err)
	}

	p.logger.InfoContext(ctx, "user registered", log.FieldUserID, u.ID)
	return core.Identity{ID: u.ID, Email: u.Email, Name: u.Name}, nil
}

// Authenticate verifies the credentials and returns the identity. A
// missing user and a wrong password are indistinguishable to the caller.
func (p *Provider) Authenticate(ctx context.Context, email, password string) (core.Identity, error) {
	u, err := p.users.UserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if gateway.IsNotFound(err) {
			return core.Identity{}, ErrInvalidCredentials
		}
		return core.Identity{}, fmt.Errorf("look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return core.Identity{}, ErrInvalidCredentials
	}

	return core.Identity{ID: u.ID, Email: u.Email, Name: u.Name}, nil
}

// Lookup resolves an identity by id, for session restoration.
func (p *Provider) Lookup(ctx context.Context, id string) (core.Identity, error) {
	u, err := p.users.UserByID(ctx, id)
	if err != nil {
		return core.Identity{}, err
	}
	return core.Identity{ID: u.ID, Email: u.Email, Name: u.Name}, nil
}
