package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/model"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/storage"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/storage/storagetest"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "campus.db"))
	require.NoError(t, err)
	return store
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, &storagetest.Suite{
		NewStorage: func(t *testing.T) storage.Storage { return openTempStore(t) },
	})
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	require.Error(t, err)
}

func TestReopenKeepsDataAndSkipsAppliedMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "campus.db")
	ctx := context.Background()

	store, err := Open(path)
	require.NoError(t, err)
	rec := &model.StudentRecord{
		StudentID: "2021-0001",
		FirstName: "Jane",
		LastName:  "Doe",
		Birthday:  model.NewDate(2003, time.May, 14),
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.CreateStudent(ctx, rec))
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	got, err := store.GetStudentByStudentID(ctx, "2021-0001")
	require.NoError(t, err)
	require.Equal(t, model.NewDate(2003, time.May, 14), got.Birthday)
	require.Equal(t, rec.CreatedAt, got.CreatedAt)

	var applied int
	require.NoError(t, store.sqlDB.QueryRow(`SELECT COUNT(*) FROM `+migrationTable).Scan(&applied))
	require.Equal(t, 1, applied)
}

func TestExtractUpMigration(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE x (id INTEGER);\n-- +migrate Down\nDROP TABLE x;\n"
	require.Equal(t, "\nCREATE TABLE x (id INTEGER);\n", extractUpMigration(content))
	require.Equal(t, "SELECT 1;", extractUpMigration("SELECT 1;"))
}

func TestEscapeLike(t *testing.T) {
	require.Equal(t, `a\%b\_c\\d`, escapeLike(`a%b_c\d`))
}

func TestOrderByMatchesTieBreaks(t *testing.T) {
	require.Equal(t, "a.experience_points DESC, a.level DESC, a.id ASC", orderBy(model.SortByExperiencePoints, model.SortDesc))
	require.Equal(t, "s.student_id ASC, a.id ASC", orderBy(model.SortByStudentID, model.SortAsc))
	require.Equal(t, "a.level DESC, a.id ASC", orderBy(model.SortByLevel, model.SortDesc))
}
