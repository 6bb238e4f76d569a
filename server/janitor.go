package server

import (
	"context"

	"github.com/jrsteele09/go-delivery-auth/token/refresh"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Janitor periodically drops expired refresh tokens and idle rate limiters
type Janitor struct {
	cron    *cron.Cron
	tokens  *refresh.Manager
	limiter *clientLimiter
	log     zerolog.Logger
}

func (s *Server) NewJanitor() *Janitor {
	return &Janitor{
		cron:    cron.New(),
		tokens:  s.refreshTokens,
		limiter: s.limiter,
		log:     s.logger,
	}
}

// Start schedules Sweep with a cron spec such as "@every 10m"
func (j *Janitor) Start(spec string) error {
	if _, err := j.cron.AddFunc(spec, j.Sweep); err != nil {
		return err
	}
	j.cron.Start()
	return nil
}

// Stop halts scheduling; the returned context is done once a running sweep finishes
func (j *Janitor) Stop() context.Context {
	return j.cron.Stop()
}

func (j *Janitor) Sweep() {
	removed, err := j.tokens.PurgeExpired()
	if err != nil {
		j.log.Error().Err(err).Msg("refresh token purge failed")
	} else if removed > 0 {
		j.log.Info().Int("removed", removed).Msg("purged expired refresh tokens")
	}

	if j.limiter != nil {
		if idle := j.limiter.dropIdle(); idle > 0 {
			j.log.Debug().Int("removed", idle).Msg("dropped idle rate limiters")
		}
	}
}
