package service

import (
	"context"
	"time"

	"takarawalk_backend/internal/config"

	"github.com/go-redis/redis/v8"
)

const cooldownKeyPrefix = "solve:cooldown:"

// GuardService gates submission attempts before the arbiter runs. The
// cooldown clock lives in Redis, keyed by session, so a client cannot dodge
// it by holding its own timestamp.
type GuardService struct {
	Redis    *redis.Client
	Cooldown time.Duration
}

func NewGuardService(rdb *redis.Client, cfg *config.Config) *GuardService {
	return &GuardService{
		Redis:    rdb,
		Cooldown: cfg.Solve.Cooldown(),
	}
}

// Admission is the guard's verdict on one attempt.
type Admission struct {
	Allowed bool
	// RemainingSeconds is set when the session is still cooling down.
	RemainingSeconds int
	// BotTrapped marks a honeypot hit. Callers must report it as a plain
	// wrong answer so automation cannot tell it was detected.
	BotTrapped bool
}

// Admit checks the honeypot and the per-session cooldown. It never arms the
// cooldown itself: a denied attempt must not extend the window, only a fully
// evaluated one does (see MarkEvaluated).
func (g *GuardService) Admit(ctx context.Context, sessionID, honeypot string) (Admission, error) {
	if honeypot != "" {
		return Admission{BotTrapped: true}, nil
	}

	ttl, err := g.Redis.PTTL(ctx, cooldownKeyPrefix+sessionID).Result()
	if err != nil {
		return Admission{}, err
	}
	if ttl > 0 {
		remaining := int((ttl + time.Second - 1) / time.Second)
		if remaining < 1 {
			remaining = 1
		}
		return Admission{RemainingSeconds: remaining}, nil
	}

	return Admission{Allowed: true}, nil
}

// MarkEvaluated arms the cooldown after an attempt was actually evaluated
// (correct, wrong, or already solved). Storage errors skip this on purpose:
// a submission the arbiter never judged does not consume the session's slot.
func (g *GuardService) MarkEvaluated(ctx context.Context, sessionID string) error {
	return g.Redis.Set(ctx, cooldownKeyPrefix+sessionID, "1", g.Cooldown).Err()
}
