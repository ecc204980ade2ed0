package dialogue

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Janitor periodically sweeps idle sessions out of a Store.
type Janitor struct {
	cron *cron.Cron
}

func StartJanitor(st *Store, interval time.Duration) (*Janitor, error) {
	if interval < time.Second {
		return nil, fmt.Errorf("session sweep interval must be at least 1s, got %s", interval)
	}

	c := cron.New()

	_, err := c.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		if n := st.Sweep(); n > 0 {
			slog.Info("evicted idle sessions", "count", n, "remaining", st.Len())
		}
	})
	if err != nil {
		return nil, fmt.Errorf("error scheduling session sweep: %w", err)
	}

	c.Start()
	slog.Info("session janitor started", "interval", interval)
	return &Janitor{cron: c}, nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
	slog.Info("session janitor stopped")
}
