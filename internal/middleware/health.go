package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	healthTimeout = 5 * time.Second
	checkTimeout  = 2 * time.Second
)

// Check tests one dependency; nil means healthy.
type Check func(ctx context.Context) error

type healthReport struct {
	Status string            `json:"status"`
	Time   time.Time         `json:"time"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health runs every check in parallel, each under its own timeout, and
// answers 503 with the failing messages when any of them errors.
func Health(checks map[string]Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		var (
			mu      sync.Mutex
			results = make(map[string]string, len(checks))
			failed  bool
			g       errgroup.Group
		)
		for name, check := range checks {
			g.Go(func() error {
				cctx, ccancel := context.WithTimeout(ctx, checkTimeout)
				defer ccancel()
				msg := "ok"
				err := check(cctx)
				if err != nil {
					msg = err.Error()
				}
				mu.Lock()
				results[name] = msg
				failed = failed || err != nil
				mu.Unlock()
				return nil
			})
		}
		g.Wait()

		rep := healthReport{Status: "ok", Time: time.Now().UTC(), Checks: results}
		code := http.StatusOK
		if failed {
			rep.Status, code = "degraded", http.StatusServiceUnavailable
		}
		writeHealth(w, code, rep)
	}
}

// Ready answers 503 until ready reports true.
func Ready(ready func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !ready() {
			writeHealth(w, http.StatusServiceUnavailable, healthReport{Status: "warming", Time: time.Now().UTC()})
			return
		}
		writeHealth(w, http.StatusOK, healthReport{Status: "ready", Time: time.Now().UTC()})
	}
}

// Live always answers 200 while the process serves requests.
func Live(w http.ResponseWriter, r *http.Request) {
	writeHealth(w, http.StatusOK, healthReport{Status: "alive", Time: time.Now().UTC()})
}

func writeHealth(w http.ResponseWriter, code int, rep healthReport) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(rep)
}
