// Package query implements the authenticated SOQL query proxy.
package query

import (
	"errors"
	"net/http"

	"github.com/forcegate/forcegate/internal/config"
	"github.com/forcegate/forcegate/internal/httputil"
	"github.com/forcegate/forcegate/internal/logger"
	"github.com/forcegate/forcegate/internal/middleware"
	"github.com/forcegate/forcegate/internal/salesforce"
	"github.com/forcegate/forcegate/internal/session"
	"github.com/forcegate/forcegate/internal/svrlib"
)

// QueryRouter handles the /query endpoint.
type QueryRouter struct {
	*svrlib.Router
	upstream *salesforce.Client
}

// RegisterRoutes registers the query proxy route on the given mux.
func RegisterRoutes(mux *http.ServeMux, cfg *config.Config, store session.Store, upstream *salesforce.Client) *QueryRouter {
	router := &QueryRouter{
		Router:   svrlib.NewRouter(mux, "/query", cfg),
		upstream: upstream,
	}
	loader := middleware.SessionLoader(store, []byte(cfg.SessionSecret))
	mux.Handle("/query", middleware.ApplyFunc(router.QueryHandler, loader))
	return router
}

// QueryHandler forwards the caller's query string to the upstream data API
// with the session's credential and returns the upstream body unmodified.
func (rt *QueryRouter) QueryHandler(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSession(r)
	cred, err := session.RequireCredential(sess)
	if err != nil {
		httputil.WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	q := r.URL.Query().Get("q")
	if q == "" {
		httputil.WriteError(w, http.StatusBadRequest, "Missing query parameter 'q'")
		return
	}

	body, contentType, err := rt.upstream.Query(r.Context(), cred, q)
	if err != nil {
		var ue *salesforce.UpstreamError
		if errors.As(err, &ue) {
			httputil.WriteUpstreamError(w, ue.Body, ue.ContentType, "op", ue.Op, "upstreamStatus", ue.StatusCode)
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, err.Error(), "op", "query")
		return
	}

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	if _, err := w.Write(body); err != nil {
		logger.Error("Failed to write query response", "error", err)
	}
}
