package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService(t *testing.T) {
	ctx := context.Background()

	t.Run("login authenticate logout", func(t *testing.T) {
		f := newFixture(t)
		auth := NewAuthService(f.m, "test-secret", 24*time.Hour)
		userID := f.user(t, "auth@example.com", false)

		token, status, err := auth.Login(ctx, "auth@example.com", "correct horse")
		require.NoError(t, err)
		require.Equal(t, LoginSuccess, status)
		require.NotEmpty(t, token)

		sessionID, err := auth.SessionID(token)
		require.NoError(t, err)
		exists, err := f.m.Session.SessionExists(ctx, sessionID)
		require.NoError(t, err)
		assert.True(t, exists)

		f.advance(time.Hour)
		user, err := auth.Authenticate(ctx, token)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, userID, user.ID)

		// authenticating touches the session
		session, err := f.m.Session.GetSession(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, int64(testEpoch+3600), session.UpdateTime)

		require.NoError(t, auth.Logout(ctx, token))
		user, err = auth.Authenticate(ctx, token)
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("rejected login has no token", func(t *testing.T) {
		f := newFixture(t)
		auth := NewAuthService(f.m, "test-secret", time.Hour)
		f.user(t, "auth@example.com", false)

		token, status, err := auth.Login(ctx, "auth@example.com", "wrong")
		require.NoError(t, err)
		assert.Equal(t, LoginBadLogin, status)
		assert.Empty(t, token)
		assert.Zero(t, f.count(t, TableSessions))
	})

	t.Run("foreign and expired tokens", func(t *testing.T) {
		f := newFixture(t)
		auth := NewAuthService(f.m, "test-secret", time.Hour)
		other := NewAuthService(f.m, "other-secret", time.Hour)
		f.user(t, "auth@example.com", false)

		forged, _, err := other.Login(ctx, "auth@example.com", "correct horse")
		require.NoError(t, err)
		_, err = auth.SessionID(forged)
		assert.ErrorIs(t, err, ErrInvalidToken)

		user, err := auth.Authenticate(ctx, forged)
		require.NoError(t, err)
		assert.Nil(t, user)

		_, err = auth.SessionID("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)

		token, _, err := auth.Login(ctx, "auth@example.com", "correct horse")
		require.NoError(t, err)
		f.advance(2 * time.Hour)
		_, err = auth.SessionID(token)
		assert.ErrorIs(t, err, ErrInvalidToken)

		// logging out with a dead token is not an error
		assert.NoError(t, auth.Logout(ctx, token))
	})
}
