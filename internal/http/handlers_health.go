package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	probeOK          = `{"status":"ok"}`
	probeUnavailable = `{"status":"unavailable"}`
	readyTimeout     = 2 * time.Second
)

// Pinger reports whether a backing store is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

func writeProbe(w http.ResponseWriter, r *http.Request, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if r.Method != http.MethodHead {
		_, _ = io.WriteString(w, body)
	}
}

// healthHandler is the liveness probe; it never touches the store.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeProbe(w, r, http.StatusOK, probeOK)
}

// readyHandler answers 503 while the store does not answer a ping within readyTimeout.
func readyHandler(db Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			writeProbe(w, r, http.StatusOK, probeOK)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			logger.WarnContext(r.Context(), "readiness ping failed", slog.Any("error", err))
			writeProbe(w, r, http.StatusServiceUnavailable, probeUnavailable)
			return
		}
		writeProbe(w, r, http.StatusOK, probeOK)
	}
}
