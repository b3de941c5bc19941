package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wagermatch/auth"
)

const testSecret = "local-dev-secret"

func TestIssueToken(t *testing.T) {
	userID := uuid.New()

	t.Run("token verifies with the same secret", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, IssueToken(testSecret, []string{userID.String(), "Tester", "1h"}, &out))

		identity, err := auth.NewJWTVerifier(testSecret).Verify(strings.TrimSpace(out.String()))
		require.NoError(t, err)
		assert.Equal(t, userID, identity.UserID)
		assert.Equal(t, "Tester", identity.DisplayName)
	})

	t.Run("token is rejected under another secret", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, IssueToken(testSecret, []string{userID.String()}, &out))

		_, err := auth.NewJWTVerifier("other-secret").Verify(strings.TrimSpace(out.String()))
		assert.Error(t, err)
	})

	tests := []struct {
		name    string
		secret  string
		args    []string
		wantErr string
	}{
		{"missing user id", testSecret, nil, "usage"},
		{"malformed user id", testSecret, []string{"not-a-uuid"}, "invalid user id"},
		{"malformed ttl", testSecret, []string{userID.String(), "Tester", "soon"}, "invalid ttl"},
		{"negative ttl", testSecret, []string{userID.String(), "Tester", "-1h"}, "ttl must be positive"},
		{"no secret", "", []string{userID.String()}, "JWT secret not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := IssueToken(tt.secret, tt.args, &out)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Empty(t, out.String())
		})
	}
}
