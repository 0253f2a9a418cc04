// Package httpadmin exposes operator controls for the bot: stopping and
// resuming speech, and reloading configuration from the environment.
package httpadmin

import (
	"encoding/json"
	"net/http"
)

// Controller is the slice of the bot the admin surface drives.
type Controller interface {
	StartTTS()
	StopTTS()
	ReloadConfig() error
}

type Server struct {
	ctl Controller
}

func New(ctl Controller) *Server { return &Server{ctl: ctl} }

func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/admin/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/admin/tts/start", s.postOnly(func(w http.ResponseWriter, _ *http.Request) {
		s.ctl.StartTTS()
		writeOK(w, map[string]any{"ok": true, "stopped": false})
	}))
	mux.HandleFunc("/admin/tts/stop", s.postOnly(func(w http.ResponseWriter, _ *http.Request) {
		s.ctl.StopTTS()
		writeOK(w, map[string]any{"ok": true, "stopped": true})
	}))
	mux.HandleFunc("/admin/config/reload", s.postOnly(func(w http.ResponseWriter, _ *http.Request) {
		if err := s.ctl.ReloadConfig(); err != nil {
			http.Error(w, "reload failed: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeOK(w, map[string]any{"ok": true})
	}))
}

func (s *Server) postOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

func writeOK(w http.ResponseWriter, payload map[string]any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(payload)
}
