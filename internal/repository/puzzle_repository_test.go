package repository

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"takarawalk_backend/internal/model"
	"takarawalk_backend/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupRepo(t *testing.T) *PuzzleRepository {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return NewPuzzleRepository(db)
}

func seedPuzzle(t *testing.T, repo *PuzzleRepository, title string, creatorID uint, solved bool) *model.Puzzle {
	t.Helper()
	p := &model.Puzzle{
		Title:       title,
		ImageURL:    "/uploads/" + title + ".jpg",
		AnswerType:  model.AnswerKeyword,
		Answer:      "answer",
		CreatorID:   creatorID,
		CreatorName: "maker",
	}
	if solved {
		name := "winner"
		uid := uint(99)
		now := time.Now()
		p.Solved = true
		p.SolvedBy = &name
		p.SolvedByUID = &uid
		p.SolvedAt = &now
	}
	require.NoError(t, repo.Create(p))
	return p
}

func TestPuzzleRepository_CreateAssignsID(t *testing.T) {
	repo := setupRepo(t)

	p := seedPuzzle(t, repo, "mural", 1, false)
	assert.NotEmpty(t, p.ID)

	got, err := repo.FindByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "mural", got.Title)
}

func TestPuzzleRepository_FindByIDMissing(t *testing.T) {
	repo := setupRepo(t)

	_, err := repo.FindByID(model.GenerateUUID())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPuzzleRepository_ListPaginates(t *testing.T) {
	repo := setupRepo(t)
	for i := 0; i < 7; i++ {
		seedPuzzle(t, repo, fmt.Sprintf("p%d", i), 1, false)
	}

	first, total, err := repo.List(1, 5, false)
	require.NoError(t, err)
	assert.EqualValues(t, 7, total)
	assert.Len(t, first, 5)

	second, total, err := repo.List(2, 5, false)
	require.NoError(t, err)
	assert.EqualValues(t, 7, total)
	assert.Len(t, second, 2)
}

func TestPuzzleRepository_ListUnsolvedFilter(t *testing.T) {
	repo := setupRepo(t)
	seedPuzzle(t, repo, "open", 1, false)
	seedPuzzle(t, repo, "done", 1, true)

	puzzles, total, err := repo.List(1, 10, true)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, puzzles, 1)
	assert.Equal(t, "open", puzzles[0].Title)
}

func TestPuzzleRepository_FindByCreator(t *testing.T) {
	repo := setupRepo(t)
	seedPuzzle(t, repo, "mine", 1, false)
	seedPuzzle(t, repo, "theirs", 2, false)

	puzzles, err := repo.FindByCreator(1)
	require.NoError(t, err)
	require.Len(t, puzzles, 1)
	assert.Equal(t, "mine", puzzles[0].Title)

	count, err := repo.CountByCreator(1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestPuzzleRepository_FindSolvedBy(t *testing.T) {
	repo := setupRepo(t)
	solved := seedPuzzle(t, repo, "done", 1, true)
	seedPuzzle(t, repo, "open", 1, false)

	puzzles, err := repo.FindSolvedBy(99)
	require.NoError(t, err)
	require.Len(t, puzzles, 1)
	assert.Equal(t, solved.ID, puzzles[0].ID)
}

func TestPuzzleRepository_UpdateFieldsAndDelete(t *testing.T) {
	repo := setupRepo(t)
	p := seedPuzzle(t, repo, "before", 1, false)

	require.NoError(t, repo.UpdateFields(p.ID, map[string]interface{}{"title": "after"}))
	got, err := repo.FindByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Title)

	require.NoError(t, repo.Delete(p.ID))
	_, err = repo.FindByID(p.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
