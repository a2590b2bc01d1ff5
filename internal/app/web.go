// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/ahrs_emulator/internal/log"
	"github.com/relabs-tech/ahrs_emulator/internal/protocol"
	"github.com/relabs-tech/ahrs_emulator/internal/serialport"
	"github.com/relabs-tech/ahrs_emulator/internal/status"
)

const (
	wsWriteWait       = 5 * time.Second
	wsPingPeriod      = 30 * time.Second
	webShutdownPeriod = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // bench tool, served on the local network only
	},
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	Connected   bool        `json:"connected"`
	Port        string      `json:"port"`
	ActiveModel int         `json:"active_model"` // 0 = none
	ActiveName  string      `json:"active_name,omitempty"`
	Models      []Indicator `json:"models"`
}

// SelectResponse is the body of POST /api/models/{id}/select.
type SelectResponse struct {
	Started bool           `json:"started"`
	Status  StatusResponse `json:"status"`
}

// WebServer exposes the emulator controls over HTTP and streams status lines
// over a websocket.
type WebServer struct {
	emu *Emulator
	hub *status.Hub
}

func NewWebServer(emu *Emulator, hub *status.Hub) *WebServer {
	return &WebServer{emu: emu, hub: hub}
}

// Router builds the HTTP routes.
func (s *WebServer) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(loggingMiddleware)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", s.getStatus).Methods("GET")
	api.HandleFunc("/connect", s.connect).Methods("POST")
	api.HandleFunc("/disconnect", s.disconnect).Methods("POST")
	api.HandleFunc("/models/{id}/select", s.selectModel).Methods("POST")
	api.HandleFunc("/deactivate", s.deactivate).Methods("POST")

	router.HandleFunc("/ws/status", s.statusStream).Methods("GET")
	return router
}

// RunWebServer serves handler on addr until ctx is cancelled.
func RunWebServer(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("web server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("web server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), webShutdownPeriod)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web server shutdown: %w", err)
	}
	return nil
}

func (s *WebServer) currentStatus() StatusResponse {
	resp := StatusResponse{
		Connected: s.emu.Connected(),
		Port:      s.emu.PortPath(),
		Models:    s.emu.Indicators(),
	}
	if id, ok := s.emu.Active(); ok {
		resp.ActiveModel = int(id)
		resp.ActiveName = id.Name()
	}
	return resp
}

func (s *WebServer) getStatus(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, s.currentStatus())
}

func (s *WebServer) connect(w http.ResponseWriter, r *http.Request) {
	if err := s.emu.Connect(); err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, serialport.ErrPortUnavailable) {
			code = http.StatusServiceUnavailable
		}
		sendError(w, code, "connect failed", err)
		return
	}
	sendJSON(w, http.StatusOK, s.currentStatus())
}

func (s *WebServer) disconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.emu.Disconnect(); err != nil {
		sendError(w, http.StatusInternalServerError, "disconnect failed", err)
		return
	}
	sendJSON(w, http.StatusOK, s.currentStatus())
}

func (s *WebServer) selectModel(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		sendError(w, http.StatusBadRequest, "invalid model id", err)
		return
	}
	id, err := protocol.ParseModelID(n)
	if err != nil {
		sendError(w, http.StatusNotFound, "unknown model", err)
		return
	}

	started, err := s.emu.Select(id)
	switch {
	case errors.Is(err, ErrNotConnected):
		sendError(w, http.StatusConflict, "not connected", err)
		return
	case err != nil:
		sendError(w, http.StatusInternalServerError, "select failed", err)
		return
	}
	sendJSON(w, http.StatusOK, SelectResponse{Started: started, Status: s.currentStatus()})
}

func (s *WebServer) deactivate(w http.ResponseWriter, r *http.Request) {
	s.emu.Deactivate()
	sendJSON(w, http.StatusOK, s.currentStatus())
}

// statusStream sends the recent history and then every new status line.
func (s *WebServer) statusStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	id, lines, backlog := s.hub.Subscribe()
	defer s.hub.Unsubscribe(id)

	// Reader goroutine only notices the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for _, line := range backlog {
		if err := writeLine(conn, line); err != nil {
			return
		}
	}

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(wsWriteWait))
				return
			}
			if err := writeLine(conn, line); err != nil {
				log.Debugf("web: status stream write: %v", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

func writeLine(conn *websocket.Conn, line status.Line) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(line)
}

func sendJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warnf("web: json encode error: %v", err)
	}
}

func sendError(w http.ResponseWriter, code int, message string, err error) {
	body := map[string]interface{}{
		"error":  message,
		"status": code,
	}
	if err != nil {
		body["details"] = err.Error()
	}
	sendJSON(w, code, body)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debugf("%s %s %s %v", r.Method, r.RequestURI, r.RemoteAddr, time.Since(start))
	})
}
