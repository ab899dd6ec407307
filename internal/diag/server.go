// Package diag exposes a local-only HTTP endpoint with the client's live
// synchronization state, for debugging a running instance.
package diag

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/brianly1003/termsync/internal/reconnect"
	"github.com/brianly1003/termsync/internal/session"
)

// Server serves diagnostics over HTTP. Disabled unless configured.
type Server struct {
	coordinator *reconnect.Coordinator
	sessions    *session.Registry

	srv          *http.Server
	pprofEnabled bool
	startTime    time.Time
}

// New creates a diagnostics server bound to addr.
func New(addr string, sessions *session.Registry, coordinator *reconnect.Coordinator, pprofEnabled bool) *Server {
	s := &Server{
		sessions:     sessions,
		coordinator:  coordinator,
		pprofEnabled: pprofEnabled,
		startTime:    time.Now(),
	}

	r := mux.NewRouter()
	r.HandleFunc("/diag/sessions", s.handleSessions).Methods(http.MethodGet)
	r.HandleFunc("/diag/projects/{id}/unseen", s.handleProjectUnseen).Methods(http.MethodGet)
	r.HandleFunc("/diag/health", s.handleHealth).Methods(http.MethodGet)

	if pprofEnabled {
		r.HandleFunc("/debug/pprof/", pprof.Index)
		r.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		r.HandleFunc("/debug/pprof/profile", pprof.Profile)
		r.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		r.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start begins serving in the background.
func (s *Server) Start() {
	go func() {
		log.Info().Str("addr", s.srv.Addr).Bool("pprof", s.pprofEnabled).Msg("diagnostics server listening")
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("diagnostics server failed")
		}
	}()
}

// Stop shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type sessionDiag struct {
	ID             string `json:"id"`
	ProjectID      string `json:"project_id"`
	Name           string `json:"name,omitempty"`
	Status         string `json:"status"`
	Activity       string `json:"activity"`
	Unseen         bool   `json:"unseen"`
	ReconnectState string `json:"reconnect_state"`
	OutputChunks   int    `json:"output_chunks"`
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.sessions.Sessions()
	out := make([]sessionDiag, 0, len(sessions))
	for _, sess := range sessions {
		info := sess.ToInfo()
		out = append(out, sessionDiag{
			ID:             info.ID,
			ProjectID:      info.ProjectID,
			Name:           info.Name,
			Status:         string(info.Status),
			Activity:       string(s.sessions.GetActivity(info.ID)),
			Unseen:         s.sessions.HasUnseen(info.ID),
			ReconnectState: string(s.coordinator.StateFor(info.ID)),
			OutputChunks:   s.sessions.Ledger().Len(info.ID),
		})
	}
	writeJSON(w, map[string]interface{}{"sessions": out})
}

func (s *Server) handleProjectUnseen(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]
	writeJSON(w, map[string]interface{}{
		"project_id": projectID,
		"unseen":     s.sessions.UnseenCountForProject(projectID),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to encode diagnostics response")
	}
}
