package localdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grokify/issueconductor/internal/store"
	"github.com/grokify/issueconductor/pkg/model"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), Config{Driver: DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

var helloInput = model.RepositoryInput{
	Name:        "hello",
	FullName:    "octo/hello",
	Description: "Hello world",
	URL:         "https://github.com/octo/hello",
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestOpen_PostgresRequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: DriverPostgres})
	require.Error(t, err)
}

func TestRepositories_CreateAndList(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	created, err := db.CreateRepository(ctx, "u1", helloInput)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "u1", created.UserID)
	assert.False(t, created.CreatedAt.IsZero())

	_, err = db.CreateRepository(ctx, "u1", model.RepositoryInput{
		Name: "world", FullName: "octo/world", URL: "https://github.com/octo/world",
	})
	require.NoError(t, err)

	repos, err := db.ListRepositories(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, "Hello world", repos[0].Description)
	assert.Empty(t, repos[1].Description)

	other, err := db.ListRepositories(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRepositories_DuplicateFullName(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.CreateRepository(ctx, "u1", helloInput)
	require.NoError(t, err)

	_, err = db.CreateRepository(ctx, "u1", helloInput)
	assert.ErrorIs(t, err, store.ErrAlreadyAdded)

	// full_name is unique across users
	_, err = db.CreateRepository(ctx, "u2", helloInput)
	assert.ErrorIs(t, err, store.ErrAlreadyAdded)
}

func TestRepositories_Delete(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	created, err := db.CreateRepository(ctx, "u1", helloInput)
	require.NoError(t, err)

	err = db.DeleteRepository(ctx, "u2", created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, db.DeleteRepository(ctx, "u1", created.ID))

	err = db.DeleteRepository(ctx, "u1", created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	repos, err := db.ListRepositories(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, repos)
}

func TestRepositories_BackRepoStore(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	rs := store.NewRepoStore(db, "u1", nil)
	require.NoError(t, rs.Load(ctx))

	_, err := rs.Add(ctx, helloInput)
	require.NoError(t, err)

	_, err = rs.Add(ctx, helloInput)
	assert.ErrorIs(t, err, store.ErrAlreadyAdded)

	assert.Len(t, rs.State().Repositories, 1)
}

func TestProfiles_Upsert(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	got, err := db.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, got.IsAbsent())

	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	db.now = func() time.Time { return first }
	p, err := db.UpsertProfile(ctx, "u1", model.User{Login: "octocat", Name: "The Octocat"})
	require.NoError(t, err)
	assert.Equal(t, "octocat", p.Login)
	assert.Equal(t, first, p.CreatedAt)

	later := first.Add(time.Hour)
	db.now = func() time.Time { return later }
	p, err = db.UpsertProfile(ctx, "u1", model.User{Login: "octocat2"})
	require.NoError(t, err)
	assert.Equal(t, "octocat2", p.Login)
	assert.Empty(t, p.Name)
	assert.Equal(t, first, p.CreatedAt)
	assert.Equal(t, later, p.UpdatedAt)
}

func TestFileDatabasePersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Driver: DriverSQLite, DSN: filepath.Join(t.TempDir(), "issues.db")}

	db, err := Open(ctx, cfg)
	require.NoError(t, err)
	_, err = db.CreateRepository(ctx, "u1", helloInput)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	reopened, err := Open(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	repos, err := reopened.ListRepositories(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "octo/hello", repos[0].FullName)
}
