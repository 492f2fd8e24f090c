package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"atrium/internal/domain/user"
	vo "atrium/internal/domain/user/valueobjects"
	"atrium/internal/infrastructure/migration"
	"atrium/internal/shared/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(migration.AutoMigrateModels()...))
	return gdb
}

func createTestUser(t *testing.T, repo user.Repository, address string) *user.User {
	t.Helper()
	emailVO, err := vo.NewEmail(address)
	require.NoError(t, err)
	u, err := user.NewUser(emailVO, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func createTestSession(t *testing.T, repo user.SessionRepository, userID uint, duration time.Duration) *user.Session {
	t.Helper()
	token, err := vo.GenerateToken()
	require.NoError(t, err)
	s, err := user.NewSession(userID, token.Hash(), duration)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), s))
	return s
}

func TestSessionRepositoryLookups(t *testing.T) {
	gdb := setupTestDB(t)
	log := logger.NewLogger()
	users := NewUserRepository(gdb, log)
	sessions := NewSessionRepository(gdb, log)
	ctx := context.Background()

	owner := createTestUser(t, users, "alice@example.com")
	s := createTestSession(t, sessions, owner.ID(), time.Hour)

	got, err := sessions.GetByID(ctx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, s.RefreshTokenHash, got.RefreshTokenHash)
	assert.True(t, got.Active)

	got, err = sessions.GetByRefreshTokenHash(ctx, s.RefreshTokenHash)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, s.ID, got.ID)

	got, err = sessions.GetByID(ctx, "ses_nonexistent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionRepositoryGetActiveByUserID(t *testing.T) {
	gdb := setupTestDB(t)
	log := logger.NewLogger()
	users := NewUserRepository(gdb, log)
	sessions := NewSessionRepository(gdb, log)
	ctx := context.Background()

	owner := createTestUser(t, users, "alice@example.com")
	other := createTestUser(t, users, "bob@example.com")

	first := createTestSession(t, sessions, owner.ID(), time.Hour)
	second := createTestSession(t, sessions, owner.ID(), time.Hour)
	createTestSession(t, sessions, other.ID(), time.Hour)

	// a retired session drops out of the listing
	retired, err := sessions.Retire(ctx, second.ID)
	require.NoError(t, err)
	require.True(t, retired)

	active, err := sessions.GetActiveByUserID(ctx, owner.ID())
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, first.ID, active[0].ID)
}

func TestSessionRepositoryDeactivateByUserID(t *testing.T) {
	gdb := setupTestDB(t)
	log := logger.NewLogger()
	users := NewUserRepository(gdb, log)
	sessions := NewSessionRepository(gdb, log)
	ctx := context.Background()

	owner := createTestUser(t, users, "alice@example.com")
	other := createTestUser(t, users, "bob@example.com")
	for i := 0; i < 3; i++ {
		createTestSession(t, sessions, owner.ID(), time.Hour)
	}
	kept := createTestSession(t, sessions, other.ID(), time.Hour)

	require.NoError(t, sessions.DeactivateByUserID(ctx, owner.ID()))

	active, err := sessions.GetActiveByUserID(ctx, owner.ID())
	require.NoError(t, err)
	assert.Empty(t, active)

	active, err = sessions.GetActiveByUserID(ctx, other.ID())
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, kept.ID, active[0].ID)
}

func TestSessionRepositoryDeleteExpired(t *testing.T) {
	gdb := setupTestDB(t)
	log := logger.NewLogger()
	users := NewUserRepository(gdb, log)
	sessions := NewSessionRepository(gdb, log)
	ctx := context.Background()

	owner := createTestUser(t, users, "alice@example.com")
	expired := createTestSession(t, sessions, owner.ID(), time.Millisecond)
	alive := createTestSession(t, sessions, owner.ID(), time.Hour)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, sessions.DeleteExpired(ctx))

	got, err := sessions.GetByID(ctx, expired.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = sessions.GetByID(ctx, alive.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestSessionRepositoryRetireIsSingleShot(t *testing.T) {
	gdb := setupTestDB(t)
	log := logger.NewLogger()
	users := NewUserRepository(gdb, log)
	sessions := NewSessionRepository(gdb, log)
	ctx := context.Background()

	owner := createTestUser(t, users, "alice@example.com")
	s := createTestSession(t, sessions, owner.ID(), time.Hour)

	// two callers holding the same active row: only the first retire wins
	retired, err := sessions.Retire(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, retired)

	retired, err = sessions.Retire(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, retired)

	retired, err = sessions.Retire(ctx, "ses_nonexistent")
	require.NoError(t, err)
	assert.False(t, retired)
}
