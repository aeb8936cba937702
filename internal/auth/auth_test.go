package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carteira/internal/gateway/memory"
	"carteira/internal/log"
)

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		fullName string
		wantBad  []string
	}{
		{
			name:     "valid",
			email:    "ana@example.com",
			password: "Str0ng!pass",
			fullName: "Ana Silva",
		},
		{
			name:     "bad email",
			email:    "not-an-email",
			password: "Str0ng!pass",
			fullName: "Ana Silva",
			wantBad:  []string{"email"},
		},
		{
			name:     "short password",
			email:    "ana@example.com",
			password: "A1!a",
			fullName: "Ana Silva",
			wantBad:  []string{"password"},
		},
		{
			name:     "password missing special char",
			email:    "ana@example.com",
			password: "Str0ngpass",
			fullName: "Ana Silva",
			wantBad:  []string{"password"},
		},
		{
			name:     "password missing uppercase",
			email:    "ana@example.com",
			password: "str0ng!pass",
			fullName: "Ana Silva",
			wantBad:  []string{"password"},
		},
		{
			name:     "name with digits",
			email:    "ana@example.com",
			password: "Str0ng!pass",
			fullName: "Ana 123",
			wantBad:  []string{"fullName"},
		},
		{
			name:     "name too short",
			email:    "ana@example.com",
			password: "Str0ng!pass",
			fullName: "A",
			wantBad:  []string{"fullName"},
		},
		{
			name:     "everything wrong",
			email:    "",
			password: "",
			fullName: "",
			wantBad:  []string{"email", "password", "fullName"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegistration(tt.email, tt.password, tt.fullName)
			if len(tt.wantBad) == 0 {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			for _, field := range tt.wantBad {
				assert.Contains(t, verr.Fields, field)
			}
			assert.Len(t, verr.Fields, len(tt.wantBad))
		})
	}
}

func TestAccentedNameAccepted(t *testing.T) {
	assert.NoError(t, ValidateRegistration("jo@example.com", "Str0ng!pass", "João Conceição"))
}

func newProvider(t *testing.T) *Provider {
	t.Helper()
	return NewProvider(memory.New(), log.New(log.DefaultConfig()))
}

func TestRegisterAndAuthenticate(t *testing.T) {
	p := newProvider(t)
	ctx := context.Background()

	id, err := p.Register(ctx, "Ana@Example.com", "Str0ng!pass", "Ana Silva")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", id.Email, "email stored lowercased")
	assert.NotEmpty(t, id.ID)

	got, err := p.Authenticate(ctx, "ana@example.com", "Str0ng!pass")
	require.NoError(t, err)
	assert.Equal(t, id.ID, got.ID)

	_, err = p.Authenticate(ctx, "ana@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = p.Authenticate(ctx, "nobody@example.com", "Str0ng!pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	p := newProvider(t)
	ctx := context.Background()

	_, err := p.Register(ctx, "ana@example.com", "Str0ng!pass", "Ana Silva")
	require.NoError(t, err)

	_, err = p.Register(ctx, "ANA@example.com", "Other1!pass", "Ana Souza")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterRejectsInvalidInputBeforeStore(t *testing.T) {
	p := newProvider(t)
	_, err := p.Register(context.Background(), "bad", "weak", "")
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}
