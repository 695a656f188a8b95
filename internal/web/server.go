// Package web provides an HTTP status and control server for the lightboard daemon.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/lightboard/internal/logic"
	"github.com/sweeney/lightboard/internal/status"
)

// Command is a remote button press or mode selection. The daemon applies it
// on its next tick, exactly like a physical press.
type Command struct {
	Selector bool
	Light    int         // 1-based label, 0 = none
	Mode     *logic.Mode // explicit mode selection
}

const formContentType = "application/x-www-form-urlencoded"

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	commands   chan<- Command
}

// New creates a Server that reads state from the given tracker and queues
// control requests on commands. A nil commands channel disables the control API.
// Access logs are written to logOut when it is non-nil.
func New(addr string, tracker *status.Tracker, commands chan<- Command, logOut io.Writer) *Server {
	s := &Server{tracker: tracker, commands: commands}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/index.html", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/index.json", s.handleJSON).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/selector", s.handleSelector).Methods(http.MethodPost)
	api.HandleFunc("/lights/{light:[0-9]+}/press", s.handlePress).Methods(http.MethodPost)
	api.HandleFunc("/mode/{mode}", s.handleMode).Methods(http.MethodPost, http.MethodPut)

	var h http.Handler = handlers.RecoveryHandler()(r)
	if logOut != nil {
		h = handlers.LoggingHandler(logOut, h)
	}

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: h,
	}
	return s
}

// Handler returns the root handler. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

func (s *Server) handleSelector(w http.ResponseWriter, r *http.Request) {
	s.enqueue(w, r, Command{Selector: true})
}

func (s *Server) handlePress(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(mux.Vars(r)["light"])
	lights := len(s.tracker.Snapshot().Ensemble.Lights)
	if err != nil || n < 1 || (lights > 0 && n > lights) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no light %s", mux.Vars(r)["light"]))
		return
	}
	s.enqueue(w, r, Command{Light: n})
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	mode, err := logic.ParseMode(mux.Vars(r)["mode"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.enqueue(w, r, Command{Mode: &mode})
}

// enqueue never blocks: a full queue means the loop is stalled.
// Form posts from the status page are redirected back to it.
func (s *Server) enqueue(w http.ResponseWriter, r *http.Request, cmd Command) {
	if s.commands == nil {
		writeError(w, http.StatusNotImplemented, "control disabled")
		return
	}
	select {
	case s.commands <- cmd:
		if r.Header.Get("Content-Type") == formContentType {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"accepted":true}`))
	default:
		writeError(w, http.StatusServiceUnavailable, "command queue full")
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
