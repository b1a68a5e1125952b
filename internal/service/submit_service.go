package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"takarawalk_backend/internal/config"
	"takarawalk_backend/pkg/logger"
	"takarawalk_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const scanFlagKeyPrefix = "solve:scan:"

// SubmitService is the entry point the API layer calls: it strings the abuse
// guard and the arbiter together, and owns the scanned-token idempotence
// flag. Submitters may be anonymous; their identity is the session id plus a
// self-declared display name, with the account id attached when present.
type SubmitService struct {
	Guard   *GuardService
	Solver  *SolveService
	Redis   *redis.Client
	flagTTL time.Duration
}

func NewSubmitService(guard *GuardService, solver *SolveService, rdb *redis.Client, cfg *config.Config) *SubmitService {
	return &SubmitService{
		Guard:   guard,
		Solver:  solver,
		Redis:   rdb,
		flagTTL: cfg.Solve.TokenFlagTTL(),
	}
}

// SubmitAnswer handles a manual keyword/token submission: guard first, then
// the arbiter. Guard rejections never reach storage. A honeypot hit reports
// plain Wrong so bots cannot tell they were caught. The cooldown is armed
// only after a fully evaluated attempt; storage errors leave it untouched.
func (s *SubmitService) SubmitAnswer(ctx context.Context, sessionID, puzzleID, answer, solverName, honeypot string, solverUID *uint) SolveOutcome {
	admission, err := s.Guard.Admit(ctx, sessionID, honeypot)
	if err != nil {
		logger.Log.Error("guard check failed", zap.String("puzzleId", puzzleID), zap.Error(err))
		monitoring.SolveAttemptCounter.WithLabelValues(string(OutcomeError)).Inc()
		return SolveOutcome{Kind: OutcomeError}
	}
	if admission.BotTrapped {
		monitoring.SolveAttemptCounter.WithLabelValues(string(OutcomeWrong)).Inc()
		return SolveOutcome{Kind: OutcomeWrong}
	}
	if !admission.Allowed {
		monitoring.SolveAttemptCounter.WithLabelValues(string(OutcomeCooldown)).Inc()
		return SolveOutcome{Kind: OutcomeCooldown, RemainingSeconds: admission.RemainingSeconds}
	}

	outcome := s.Solver.AttemptSolve(ctx, puzzleID, answer, solverName, solverUID)

	if outcome.Kind == OutcomeCorrect || outcome.Kind == OutcomeWrong || outcome.Kind == OutcomeAlreadySolved {
		if err := s.Guard.MarkEvaluated(ctx, sessionID); err != nil {
			logger.Log.Warn("failed to arm cooldown", zap.String("session", sessionID), zap.Error(err))
		}
	}
	return outcome
}

// SubmitToken routes a scanned or URL-embedded token through the same
// pipeline as a manual submission, at most once per page visit: a Redis
// processed flag per (session, puzzle) absorbs re-fires from client
// re-renders, replaying the first outcome instead of re-evaluating.
func (s *SubmitService) SubmitToken(ctx context.Context, sessionID, puzzleID, token, solverName, honeypot string, solverUID *uint) SolveOutcome {
	key := scanFlagKey(sessionID, puzzleID)

	set, err := s.Redis.SetNX(ctx, key, "pending", s.flagTTL).Result()
	if err != nil {
		// Redis outage: fall back to a plain evaluation. The arbiter is
		// idempotent, so the worst case is an extra judged attempt.
		logger.Log.Warn("scan flag unavailable", zap.String("puzzleId", puzzleID), zap.Error(err))
		return s.SubmitAnswer(ctx, sessionID, puzzleID, token, solverName, honeypot, solverUID)
	}

	if !set {
		// Already processed on this visit. Replay the stored outcome; if
		// the first invocation is still in flight, poll briefly for it.
		for i := 0; i < 5; i++ {
			val, err := s.Redis.Get(ctx, key).Result()
			if err == nil && val != "pending" {
				var outcome SolveOutcome
				if json.Unmarshal([]byte(val), &outcome) == nil {
					return outcome
				}
				break
			}
			time.Sleep(100 * time.Millisecond)
		}
		// The flag never resolved; evaluate normally rather than leave the
		// visitor without a verdict.
		return s.SubmitAnswer(ctx, sessionID, puzzleID, token, solverName, honeypot, solverUID)
	}

	outcome := s.SubmitAnswer(ctx, sessionID, puzzleID, token, solverName, honeypot, solverUID)

	switch outcome.Kind {
	case OutcomeCorrect, OutcomeWrong, OutcomeAlreadySolved:
		if payload, err := json.Marshal(outcome); err == nil {
			if err := s.Redis.Set(ctx, key, payload, s.flagTTL).Err(); err != nil {
				logger.Log.Warn("failed to store scan outcome", zap.String("puzzleId", puzzleID), zap.Error(err))
			}
		}
	default:
		// Cooldown and transient errors must not be pinned for the rest of
		// the visit; release the flag so a retry is evaluated for real.
		s.Redis.Del(ctx, key)
	}
	return outcome
}

func scanFlagKey(sessionID, puzzleID string) string {
	return fmt.Sprintf("%s%s:%s", scanFlagKeyPrefix, sessionID, puzzleID)
}
