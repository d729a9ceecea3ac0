package plan

import (
	"net/http"
	"strconv"
	"time"

	"github.com/kilianp07/gridwalk/core/planlog"
)

// NewLogHandler returns an HTTP handler exposing plan logs via GET /api/plan/logs.
// Requests must include an Authorization header with "Bearer <token>" when token is non-empty.
func NewLogHandler(store planlog.Store, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token != "" {
			auth := r.Header.Get("Authorization")
			if auth != "Bearer "+token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		params := r.URL.Query()
		q := planlog.Query{
			Strategy: params.Get("strategy"),
			RunID:    params.Get("run_id"),
		}
		if s := params.Get("start"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.Start = t
			}
		}
		if s := params.Get("end"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.End = t
			}
		}
		if s := params.Get("failed"); s != "" {
			q.FailedOnly, _ = strconv.ParseBool(s)
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []planlog.Record{}
		}
		writeJSON(w, http.StatusOK, records)
	})
}
