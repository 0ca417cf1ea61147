package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/you/accountsvc/domain"
)

// JanitorConfig controls background cleanup.
type JanitorConfig struct {
	Interval time.Duration
	// SessionRetention keeps sessions around this long after their refresh token expired.
	SessionRetention time.Duration
}

// SweepResult counts the rows removed by one sweep.
type SweepResult struct {
	Codes    int64
	Tokens   int64
	Sessions int64
}

// Janitor deletes credentials that can no longer be used. Expiry is always
// checked on access too, so sweeping is housekeeping only. Pending users are
// left alone: removing them would turn an Expired status into Verified.
type Janitor struct {
	codes    domain.CodeRepository
	tokens   domain.TokenRepository
	sessions domain.SessionRepository
	clock    domain.Clock
	cfg      JanitorConfig
	log      zerolog.Logger
}

func NewJanitor(
	codes domain.CodeRepository,
	tokens domain.TokenRepository,
	sessions domain.SessionRepository,
	clock domain.Clock,
	cfg JanitorConfig,
	log zerolog.Logger,
) *Janitor {
	return &Janitor{
		codes:    codes,
		tokens:   tokens,
		sessions: sessions,
		clock:    clock,
		cfg:      cfg,
		log:      log.With().Str("component", "janitor").Logger(),
	}
}

// Sweep runs one cleanup pass.
func (j *Janitor) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	now := j.clock.Now()

	codes, err := j.codes.DeleteExpired(ctx, now)
	if err != nil {
		return result, err
	}
	result.Codes = codes

	tokens, err := j.tokens.DeleteExpired(ctx, domain.TokenVerification, now)
	if err != nil {
		return result, err
	}
	result.Tokens = tokens

	sessions, err := j.sessions.DeleteStale(ctx, now.Add(-j.cfg.SessionRetention))
	if err != nil {
		return result, err
	}
	result.Sessions = sessions

	return result, nil
}

// Run sweeps every Interval until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	if j.cfg.Interval <= 0 {
		return
	}
	ticker := time.NewTicker(j.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := j.Sweep(ctx)
			if err != nil {
				j.log.Error().Ctx(ctx).Err(err).Msg("cleanup sweep failed")
				continue
			}
			j.log.Debug().
				Int64("codes", result.Codes).
				Int64("tokens", result.Tokens).
				Int64("sessions", result.Sessions).
				Msg("cleanup sweep finished")
		}
	}
}
