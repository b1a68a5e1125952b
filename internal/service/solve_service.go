package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"takarawalk_backend/internal/model"
	"takarawalk_backend/internal/repository"
	"takarawalk_backend/pkg/logger"
	"takarawalk_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OutcomeKind enumerates the results of a solve attempt.
type OutcomeKind string

const (
	OutcomeCorrect       OutcomeKind = "correct"
	OutcomeWrong         OutcomeKind = "wrong"
	OutcomeAlreadySolved OutcomeKind = "already_solved"
	OutcomeCooldown      OutcomeKind = "cooldown"
	OutcomeNotFound      OutcomeKind = "not_found"
	OutcomeError         OutcomeKind = "error"
)

// SolveOutcome is the typed result handed back to the submitter. Wrong is
// only ever produced by an actually evaluated incorrect answer; storage
// failures surface as OutcomeError and are safe to retry.
type SolveOutcome struct {
	Kind             OutcomeKind `json:"result"`
	SolvedBy         string      `json:"solvedBy,omitempty"`
	RemainingSeconds int         `json:"remainingSeconds,omitempty"`
}

// solveRetries bounds how often a conflicting transaction is replayed before
// the attempt is reported as a storage error.
const solveRetries = 3

// SolveService owns the open -> solved transition. The single-winner
// guarantee comes from the database transaction and row lock, never from
// process memory: any number of instances can arbitrate the same puzzle.
type SolveService struct {
	DB         *gorm.DB
	PuzzleRepo *repository.PuzzleRepository
	Hub        *PuzzleHub
}

func NewSolveService(db *gorm.DB, puzzleRepo *repository.PuzzleRepository, hub *PuzzleHub) *SolveService {
	return &SolveService{DB: db, PuzzleRepo: puzzleRepo, Hub: hub}
}

// AttemptSolve evaluates one submission inside a serialized transaction:
// read the puzzle under a row lock, bail out if it is already solved, judge
// the answer, and commit the solve fields plus a SolveEvent when correct.
// Two racing correct submissions cannot both commit; the loser re-reads the
// solved row and gets AlreadySolved.
func (s *SolveService) AttemptSolve(ctx context.Context, puzzleID, submission, solverName string, solverUID *uint) SolveOutcome {
	var outcome SolveOutcome

	for attempt := 0; ; attempt++ {
		outcome = SolveOutcome{}
		err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			p, err := s.PuzzleRepo.FindByIDForUpdate(tx, puzzleID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					outcome = SolveOutcome{Kind: OutcomeNotFound}
					return nil
				}
				return err
			}

			if p.Solved {
				winner := ""
				if p.SolvedBy != nil {
					winner = *p.SolvedBy
				}
				outcome = SolveOutcome{Kind: OutcomeAlreadySolved, SolvedBy: winner}
				return nil
			}

			if !IsCorrectAnswer(submission, p) {
				outcome = SolveOutcome{Kind: OutcomeWrong}
				return nil
			}

			now := time.Now()
			name := strings.TrimSpace(solverName)
			updates := map[string]interface{}{
				"solved":        true,
				"solved_by":     name,
				"solved_by_uid": solverUID,
				"solved_at":     now,
			}
			if err := tx.Model(&model.Puzzle{}).Where("id = ?", p.ID).Updates(updates).Error; err != nil {
				return err
			}
			event := model.SolveEvent{
				PuzzleID:   p.ID,
				SolverName: name,
				SolverUID:  solverUID,
				SolvedAt:   now,
			}
			if err := tx.Create(&event).Error; err != nil {
				return err
			}

			outcome = SolveOutcome{Kind: OutcomeCorrect, SolvedBy: name}
			return nil
		})

		if err == nil {
			break
		}
		if isRetryableTxError(err) && attempt < solveRetries {
			logger.Log.Warn("solve transaction conflict, retrying",
				zap.String("puzzleId", puzzleID),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		}

		logger.Log.Error("solve transaction failed",
			zap.String("puzzleId", puzzleID),
			zap.Error(err))
		outcome = SolveOutcome{Kind: OutcomeError}
		break
	}

	monitoring.SolveAttemptCounter.WithLabelValues(string(outcome.Kind)).Inc()

	if outcome.Kind == OutcomeCorrect && s.Hub != nil {
		s.Hub.BroadcastSolve(ctx, puzzleID, outcome.SolvedBy)
	}

	return outcome
}

// isRetryableTxError matches conflict-class storage errors: MySQL deadlock /
// lock wait timeout and SQLite busy states in tests. Anything else is a real
// failure and propagates as OutcomeError.
func isRetryableTxError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Deadlock found") ||
		strings.Contains(msg, "Lock wait timeout") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}
