package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"takarawalk_backend/internal/model"
	"takarawalk_backend/internal/repository"
	"takarawalk_backend/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=10000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// One connection keeps sqlite's writer serialization out of the way.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func newTestSolver(t *testing.T) (*SolveService, *repository.PuzzleRepository) {
	t.Helper()
	db := setupTestDB(t)
	repo := repository.NewPuzzleRepository(db)
	return NewSolveService(db, repo, nil), repo
}

func createTestPuzzle(t *testing.T, repo *repository.PuzzleRepository, answers ...string) *model.Puzzle {
	t.Helper()
	p := &model.Puzzle{
		Title:       "station mural",
		ImageURL:    "/uploads/mural.jpg",
		AnswerType:  model.AnswerKeyword,
		Answer:      answers[0],
		Answers:     model.StringList(answers),
		CreatorID:   1,
		CreatorName: "maker",
	}
	require.NoError(t, repo.Create(p))
	return p
}

func TestAttemptSolve_Correct(t *testing.T) {
	solver, repo := newTestSolver(t)
	p := createTestPuzzle(t, repo, "tokyo")

	uid := uint(7)
	outcome := solver.AttemptSolve(context.Background(), p.ID, "Tokyo", "alice", &uid)

	require.Equal(t, OutcomeCorrect, outcome.Kind)
	assert.Equal(t, "alice", outcome.SolvedBy)

	got, err := repo.FindByID(p.ID)
	require.NoError(t, err)
	assert.True(t, got.Solved)
	require.NotNil(t, got.SolvedBy)
	assert.Equal(t, "alice", *got.SolvedBy)
	require.NotNil(t, got.SolvedByUID)
	assert.Equal(t, uid, *got.SolvedByUID)
	require.NotNil(t, got.SolvedAt)
	assert.WithinDuration(t, time.Now(), *got.SolvedAt, 5*time.Second)
}

func TestAttemptSolve_WrongLeavesPuzzleOpen(t *testing.T) {
	solver, repo := newTestSolver(t)
	p := createTestPuzzle(t, repo, "tokyo")

	outcome := solver.AttemptSolve(context.Background(), p.ID, "osaka", "bob", nil)
	require.Equal(t, OutcomeWrong, outcome.Kind)

	got, err := repo.FindByID(p.ID)
	require.NoError(t, err)
	assert.False(t, got.Solved)
	assert.Nil(t, got.SolvedBy)
	assert.Nil(t, got.SolvedAt)
}

func TestAttemptSolve_AlreadySolvedReportsWinner(t *testing.T) {
	solver, repo := newTestSolver(t)
	p := createTestPuzzle(t, repo, "tokyo")

	first := solver.AttemptSolve(context.Background(), p.ID, "tokyo", "alice", nil)
	require.Equal(t, OutcomeCorrect, first.Kind)

	// A later correct answer still loses; the stored winner never changes.
	second := solver.AttemptSolve(context.Background(), p.ID, "tokyo", "bob", nil)
	require.Equal(t, OutcomeAlreadySolved, second.Kind)
	assert.Equal(t, "alice", second.SolvedBy)

	got, err := repo.FindByID(p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.SolvedBy)
	assert.Equal(t, "alice", *got.SolvedBy)
}

func TestAttemptSolve_NotFound(t *testing.T) {
	solver, _ := newTestSolver(t)

	outcome := solver.AttemptSolve(context.Background(), model.GenerateUUID(), "tokyo", "alice", nil)
	assert.Equal(t, OutcomeNotFound, outcome.Kind)
}

func TestAttemptSolve_SingleWinnerUnderContention(t *testing.T) {
	solver, repo := newTestSolver(t)
	p := createTestPuzzle(t, repo, "tokyo")

	const racers = 20
	outcomes := make([]SolveOutcome, racers)

	var start sync.WaitGroup
	var done sync.WaitGroup
	start.Add(1)
	for i := 0; i < racers; i++ {
		done.Add(1)
		go func(i int) {
			defer done.Done()
			start.Wait()
			name := string(rune('a' + i%26))
			outcomes[i] = solver.AttemptSolve(context.Background(), p.ID, "tokyo", name, nil)
		}(i)
	}
	start.Done()
	done.Wait()

	correct := 0
	alreadySolved := 0
	for _, o := range outcomes {
		switch o.Kind {
		case OutcomeCorrect:
			correct++
		case OutcomeAlreadySolved:
			alreadySolved++
		default:
			t.Fatalf("unexpected outcome %q", o.Kind)
		}
	}
	assert.Equal(t, 1, correct, "exactly one racer wins")
	assert.Equal(t, racers-1, alreadySolved)

	// The append-only record agrees.
	var events []model.SolveEvent
	require.NoError(t, solver.DB.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, p.ID, events[0].PuzzleID)
}

func TestAttemptSolve_SolverNameTrimmed(t *testing.T) {
	solver, repo := newTestSolver(t)
	p := createTestPuzzle(t, repo, "tokyo")

	outcome := solver.AttemptSolve(context.Background(), p.ID, "tokyo", "  alice  ", nil)
	require.Equal(t, OutcomeCorrect, outcome.Kind)
	assert.Equal(t, "alice", outcome.SolvedBy)
}
