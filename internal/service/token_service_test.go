package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cglreviews/internal/database"
	"cglreviews/internal/logging"
)

const week = 7 * 24 * time.Hour

func TestSessionService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.user(t, "session@example.com", false)

	sessionID, err := f.m.Session.CreateSession(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, sessionID, TokenLength)

	session, err := f.m.Session.GetSession(ctx, sessionID)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, userID, session.UserID)
	assert.Equal(t, session.CreateTime, session.UpdateTime)

	user, err := f.m.Session.GetUserBySession(ctx, sessionID)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, userID, user.ID)

	f.advance(24 * time.Hour)
	require.NoError(t, f.m.Session.UpdateSession(ctx, sessionID))
	session, err = f.m.Session.GetSession(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, int64(testEpoch+86400), session.UpdateTime)

	// a session expires a week after it was last used
	f.advance(week - time.Second)
	user, err = f.m.Session.GetUserBySession(ctx, sessionID)
	require.NoError(t, err)
	assert.NotNil(t, user)

	f.advance(time.Second)
	user, err = f.m.Session.GetUserBySession(ctx, sessionID)
	require.NoError(t, err)
	assert.Nil(t, user)

	user, err = f.m.Session.GetUserBySession(ctx, "unknown")
	require.NoError(t, err)
	assert.Nil(t, user)

	_, err = f.m.Session.CreateSession(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, f.m.Session.DeleteUserSessions(ctx, userID))
	assert.Zero(t, f.count(t, TableSessions))
}

func TestPrune_Session(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.user(t, "prune@example.com", false)

	sessionID, err := f.m.Session.CreateSession(ctx, userID)
	require.NoError(t, err)

	// touched sessions are not due yet; the prune re-arms itself
	f.advance(week - time.Hour)
	require.NoError(t, f.m.Session.UpdateSession(ctx, sessionID))
	f.advance(time.Hour)

	pending := f.m.Scheduler().Pending()
	require.NoError(t, f.m.Session.PruneSession(ctx, sessionID))
	exists, err := f.m.Session.SessionExists(ctx, sessionID)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, pending+1, f.m.Scheduler().Pending())

	f.advance(week)
	require.NoError(t, f.m.Session.PruneSession(ctx, sessionID))
	exists, err = f.m.Session.SessionExists(ctx, sessionID)
	require.NoError(t, err)
	assert.False(t, exists)

	// a second prune of the same id does nothing
	assert.NoError(t, f.m.Session.PruneSession(ctx, sessionID))
}

func TestPruneAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.user(t, "all@example.com", false)

	_, err := f.m.Session.CreateSession(ctx, userID)
	require.NoError(t, err)
	_, _, err = f.m.PasswordReset.CreatePasswordReset(ctx, "all@example.com")
	require.NoError(t, err)
	_, _, err = f.m.EmailChange.CreateEmailChange(ctx, userID, "other@example.com")
	require.NoError(t, err)
	_, _, err = f.m.Verify.CreateVerifyRecord(ctx, "fresh@example.com")
	require.NoError(t, err)
	_, _, err = f.m.Suspended.SuspendUser(ctx, f.user(t, "sus@example.com", false), testEpoch+3600)
	require.NoError(t, err)

	// each record armed one job when it was created; PruneAll arms one more per row
	armed := f.m.Scheduler().Pending()
	require.NoError(t, f.m.PruneAll(ctx))
	assert.Equal(t, 2*armed, f.m.Scheduler().Pending())
}

func TestVerifyService(t *testing.T) {
	ctx := context.Background()
	req := CreateUserRequest{
		Firstname: "Grace",
		Lastname:  "Hopper",
		Email:     "grace@example.com",
		Password:  "cobol",
		StatusID:  2,
	}

	t.Run("register then verify", func(t *testing.T) {
		f := newFixture(t)

		verifyID, userID, ok, err := f.m.Verify.RegisterUser(ctx, req)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Len(t, verifyID, TokenLength)

		record, err := f.m.Verify.GetVerifyRecord(ctx, verifyID)
		require.NoError(t, err)
		assert.Equal(t, req.Email, record.Email)

		// the address is taken while the account waits
		_, _, ok, err = f.m.Verify.RegisterUser(ctx, req)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, int64(1), f.count(t, TableUsers))

		ok, err = f.m.Verify.VerifyUser(ctx, verifyID)
		require.NoError(t, err)
		assert.True(t, ok)

		user, err := f.m.User.GetUser(ctx, userID)
		require.NoError(t, err)
		assert.True(t, user.Verified)
		assert.False(t, user.Approved)

		exists, err := f.m.Verify.VerifyRecordExists(ctx, verifyID)
		require.NoError(t, err)
		assert.False(t, exists)

		ok, err = f.m.Verify.VerifyUser(ctx, verifyID)
		require.NoError(t, err)
		assert.False(t, ok)

		// a consumed record makes the pending prune a no-op
		f.advance(2 * time.Hour)
		require.NoError(t, f.m.Verify.PruneVerifyRecord(ctx, verifyID))
		exists, err = f.m.User.UserExists(ctx, userID)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("expired verification removes the account", func(t *testing.T) {
		f := newFixture(t)

		verifyID, userID, ok, err := f.m.Verify.RegisterUser(ctx, req)
		require.NoError(t, err)
		require.True(t, ok)

		f.advance(30 * time.Minute)
		require.NoError(t, f.m.Verify.PruneVerifyRecord(ctx, verifyID))
		exists, err := f.m.User.UserExists(ctx, userID)
		require.NoError(t, err)
		assert.True(t, exists)

		f.advance(time.Hour)
		require.NoError(t, f.m.Verify.PruneVerifyRecord(ctx, verifyID))
		exists, err = f.m.User.UserExists(ctx, userID)
		require.NoError(t, err)
		assert.False(t, exists)
		assert.Zero(t, f.count(t, TableVerify))

		// the address is free again
		_, _, ok, err = f.m.Verify.RegisterUser(ctx, req)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("verified accounts survive a late prune", func(t *testing.T) {
		f := newFixture(t)

		verifyID, userID, _, err := f.m.Verify.RegisterUser(ctx, req)
		require.NoError(t, err)
		require.NoError(t, f.m.User.SetVerified(ctx, userID, true))

		f.advance(2 * time.Hour)
		require.NoError(t, f.m.Verify.DeleteUnverifiedUser(ctx, verifyID))
		exists, err := f.m.User.UserExists(ctx, userID)
		require.NoError(t, err)
		assert.True(t, exists)
		assert.Zero(t, f.count(t, TableVerify))
	})
}

func TestPasswordResetService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.user(t, "forgot@example.com", false)

	_, ok, err := f.m.PasswordReset.CreatePasswordReset(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	resetID, ok, err := f.m.PasswordReset.CreatePasswordReset(ctx, "forgot@example.com")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = f.m.PasswordReset.CreatePasswordReset(ctx, "forgot@example.com")
	require.NoError(t, err)
	assert.False(t, ok, "one reset pending per address")

	ok, err = f.m.PasswordReset.ResetPassword(ctx, resetID, "new secret")
	require.NoError(t, err)
	assert.True(t, ok)

	same, err := f.m.User.CheckPassword(ctx, userID, "new secret")
	require.NoError(t, err)
	assert.True(t, same)

	exists, err := f.m.PasswordReset.PasswordResetExists(ctx, resetID)
	require.NoError(t, err)
	assert.False(t, exists)

	ok, err = f.m.PasswordReset.ResetPassword(ctx, resetID, "again")
	require.NoError(t, err)
	assert.False(t, ok)

	// expired resets are pruned
	resetID, _, err = f.m.PasswordReset.CreatePasswordReset(ctx, "forgot@example.com")
	require.NoError(t, err)
	f.advance(2 * time.Hour)
	require.NoError(t, f.m.PasswordReset.PrunePasswordReset(ctx, resetID))
	reset, err := f.m.PasswordReset.GetPasswordReset(ctx, resetID)
	require.NoError(t, err)
	assert.Nil(t, reset)
}

func TestEmailChangeService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.user(t, "old@example.com", false)
	f.user(t, "taken@example.com", false)

	_, ok, err := f.m.EmailChange.CreateEmailChange(ctx, userID, "taken@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = f.m.EmailChange.CreateEmailChange(ctx, "ghost", "ghost@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	changeID, ok, err := f.m.EmailChange.CreateEmailChange(ctx, userID, "first@example.com")
	require.NoError(t, err)
	require.True(t, ok)

	// asking again edits the pending request in place
	again, ok, err := f.m.EmailChange.CreateEmailChange(ctx, userID, "second@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, changeID, again)
	assert.Equal(t, int64(1), f.count(t, TableEmailChanges))

	pending, err := f.m.EmailChange.GetUserEmailChange(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "second@example.com", pending.NewEmail)

	changed, err := f.m.EmailChange.ChangeEmail(ctx, changeID)
	require.NoError(t, err)
	assert.True(t, changed)

	user, err := f.m.User.GetUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "second@example.com", user.Email)

	exists, err := f.m.EmailChange.UserEmailChangeExists(ctx, userID)
	require.NoError(t, err)
	assert.False(t, exists)

	changed, err = f.m.EmailChange.ChangeEmail(ctx, changeID)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestSuspendedService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.user(t, "rowdy@example.com", false)

	for i := 0; i < 2; i++ {
		_, err := f.m.Session.CreateSession(ctx, userID)
		require.NoError(t, err)
	}

	until := int64(testEpoch + 3*86400)
	suspensionID, ok, err := f.m.Suspended.SuspendUser(ctx, userID, until)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Zero(t, f.count(t, TableSessions))

	_, ok, err = f.m.Suspended.SuspendUser(ctx, userID, until+60)
	require.NoError(t, err)
	assert.False(t, ok)

	suspended, err := f.m.Suspended.UserIsSuspended(ctx, userID)
	require.NoError(t, err)
	assert.True(t, suspended)

	users, err := f.m.Suspended.SuspendedUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, suspensionID, users[0].SuspensionID)
	assert.Equal(t, until, users[0].SuspendedUntil)

	// not yet due
	require.NoError(t, f.m.Suspended.PruneSuspension(ctx, suspensionID))
	exists, err := f.m.Suspended.SuspensionExists(ctx, suspensionID)
	require.NoError(t, err)
	assert.True(t, exists)

	f.advance(3 * 24 * time.Hour)
	require.NoError(t, f.m.Suspended.PruneSuspension(ctx, suspensionID))
	suspension, err := f.m.Suspended.GetUserSuspension(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, suspension)

	status, err := f.m.User.Login(ctx, "rowdy@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, LoginSuccess, status)
}

func TestUserStatusChangeService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.user(t, "grad@example.com", false)

	requestID, err := f.m.UserStatusChange.CreateRequest(ctx, userID, 3)
	require.NoError(t, err)

	// a second request retargets the first
	again, err := f.m.UserStatusChange.CreateRequest(ctx, userID, 2)
	require.NoError(t, err)
	assert.Equal(t, requestID, again)

	requests, err := f.m.UserStatusChange.GetUserRequests(ctx)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, "Student", requests[0].CurrentStatus)
	assert.Equal(t, "Alum", requests[0].NewStatus)

	ok, err := f.m.UserStatusChange.ApproveRequest(ctx, requestID)
	require.NoError(t, err)
	assert.True(t, ok)

	user, err := f.m.User.GetUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, user.StatusID)

	ok, err = f.m.UserStatusChange.ApproveRequest(ctx, requestID)
	require.NoError(t, err)
	assert.False(t, ok)

	requestID, err = f.m.UserStatusChange.CreateRequest(ctx, userID, 4)
	require.NoError(t, err)
	require.NoError(t, f.m.UserStatusChange.DenyRequest(ctx, requestID))
	assert.Zero(t, f.count(t, TableUserStatusChanges))

	user, err = f.m.User.GetUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, user.StatusID)
}

func TestUserStatusChangeService_ApproveRequestDeleteFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := logging.Discard()
	m := NewManager(database.New(sqlx.NewDb(db, "postgres"), logger), WithLogger(logger))
	t.Cleanup(m.Scheduler().Stop)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM user_status_changes WHERE id = \$1`).
		WithArgs("req1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "new_status_id", "create_time"}).
			AddRow("req1", "user1", 2, testEpoch))
	mock.ExpectExec(`UPDATE users SET status_id = \$1 WHERE id = \$2`).
		WithArgs(int64(2), "user1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM user_status_changes WHERE id = \$1`).
		WithArgs("req1").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	approved, err := m.UserStatusChange.ApproveRequest(context.Background(), "req1")
	require.Error(t, err)
	assert.False(t, approved)
	assert.NoError(t, mock.ExpectationsWereMet())
}
