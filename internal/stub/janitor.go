package stub

import (
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Janitor periodically drops expired sessions from the store.
type Janitor struct {
	cron  *cron.Cron
	store *Store
	log   zerolog.Logger
}

func NewJanitor(store *Store, log zerolog.Logger) *Janitor {
	return &Janitor{
		cron:  cron.New(cron.WithSeconds()),
		store: store,
		log:   log,
	}
}

func (j *Janitor) Start() error {
	if _, err := j.cron.AddFunc("0 0 * * * *", j.purgeSessions); err != nil {
		return err
	}

	j.cron.Start()
	return nil
}

func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

func (j *Janitor) purgeSessions() {
	if purged := j.store.PurgeExpiredSessions(); purged > 0 {
		j.log.Info().Int("purged", purged).Msg("expired sessions purged")
	}
}
