package auth

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"floorlink/domain"
	"floorlink/mocks"
)

const testSecret = "test-secret-at-least-32-bytes-long"

func TestTokenIssuer_RoundTrip(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer(testSecret, time.Hour)
	id := domain.ParticipantID(uuid.NewString())

	// When a token is generated and validated
	token, err := issuer.Generate(id, []string{"operator"})
	req.NoError(err)

	claims, err := issuer.Validate(token)
	req.NoError(err)

	// Then the claims carry the participant identity
	req.Equal(string(id), claims.ParticipantID)
	req.Equal([]string{"operator"}, claims.Roles)
	req.Equal("floorlink", claims.Issuer)
}

func TestTokenIssuer_RejectsForeignSignature(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer(testSecret, time.Hour)
	foreign := NewTokenIssuer("another-secret-also-32-bytes-long!", time.Hour)

	token, err := foreign.Generate("alice", nil)
	req.NoError(err)

	_, err = issuer.Validate(token)
	req.Error(err)
}

func TestTokenIssuer_RejectsExpiredToken(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer(testSecret, -time.Minute)

	token, err := issuer.Generate("alice", nil)
	req.NoError(err)

	_, err = issuer.Validate(token)
	req.Error(err)
}

func TestTokenIssuer_RejectsMissingParticipantID(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer(testSecret, time.Hour)

	token, err := issuer.Generate("", nil)
	req.NoError(err)

	_, err = issuer.Validate(token)
	req.Error(err)
}

func TestHashPIN_CompareRoundTrip(t *testing.T) {
	req := require.New(t)

	hash, err := HashPIN("2468")
	req.NoError(err)
	req.Contains(hash, "$argon2id$")

	// Then only the original PIN verifies
	ok, err := ComparePIN("2468", hash)
	req.NoError(err)
	req.True(ok)

	ok, err = ComparePIN("8642", hash)
	req.NoError(err)
	req.False(ok)

	// And two hashes of the same PIN differ by salt
	again, err := HashPIN("2468")
	req.NoError(err)
	req.NotEqual(hash, again)
}

func TestComparePIN_MalformedHash(t *testing.T) {
	req := require.New(t)

	_, err := ComparePIN("2468", "not-a-hash")
	req.Error(err)
}

func TestCapabilityGate_HasPermission(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	directory := mocks.NewMockDirectory(ctrl)
	gate := NewCapabilityGate(slog.Default(), directory)
	ctx := context.Background()

	tests := []struct {
		name       string
		roles      []string
		rolesErr   error
		capability string
		expected   bool
	}{
		{
			name:       "Dispatcher may search",
			roles:      []string{"dispatcher"},
			capability: CapabilityChatSearch,
			expected:   true,
		},
		{
			name:       "Operator may message",
			roles:      []string{"operator"},
			capability: CapabilityChatMessage,
			expected:   true,
		},
		{
			name:       "Operator may not search",
			roles:      []string{"operator"},
			capability: CapabilityChatSearch,
			expected:   false,
		},
		{
			name:       "Unknown role grants nothing",
			roles:      []string{"visitor"},
			capability: CapabilityChatMessage,
			expected:   false,
		},
		{
			name:       "Second role is enough",
			roles:      []string{"operator", "foreman"},
			capability: CapabilityChatSearch,
			expected:   true,
		},
		{
			name:       "Directory failure denies",
			rolesErr:   fmt.Errorf("unknown participant"),
			capability: CapabilityChatMessage,
			expected:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := domain.ParticipantID(uuid.NewString())
			directory.EXPECT().GetRoles(gomock.Any(), id).Return(tt.roles, tt.rolesErr)

			req.Equal(tt.expected, gate.HasPermission(ctx, id, tt.capability))
		})
	}
}
