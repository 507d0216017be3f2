package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/trueheartapps/versesync/internal/annot"
	"github.com/trueheartapps/versesync/internal/common"
	"github.com/trueheartapps/versesync/internal/server/users"
)

type authFunc func(ctx context.Context, email, password string) (*users.Session, error)

type sessionResponse struct {
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
	UserID       string `json:"user_id,omitempty"`
	Email        string `json:"email,omitempty"`
	SessionToken string `json:"session_token,omitempty"`
}

type statusResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, statusResponse{Success: false, Error: msg})
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	s.handleAuth(w, r, s.users.Register)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.handleAuth(w, r, s.users.Login)
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request, open authFunc) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	session, err := open(r.Context(), req.Email, req.Password)
	if err != nil {
		s.logger.Warn(r.Context(), "auth request failed", "email", req.Email, "error", err)
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		Success:      true,
		UserID:       session.UserID,
		Email:        session.Email,
		SessionToken: session.Token,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token != "" {
		if err := s.users.Logout(r.Context(), token); err != nil {
			s.logger.Warn(r.Context(), "logout failed", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, statusResponse{Success: true})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeJSON(w, http.StatusOK, sessionResponse{Success: false, Error: "missing session token"})
		return
	}

	session, err := s.users.Validate(r.Context(), token)
	if err != nil {
		writeJSON(w, http.StatusOK, sessionResponse{Success: false, Error: "invalid session token"})
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		Success: true,
		UserID:  session.UserID,
		Email:   session.Email,
	})
}

type saveRequest struct {
	AppID string `json:"app_id"`
	Data  string `json:"data"`
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := getUserID(r.Context())
	if err := s.syncdata.Save(r.Context(), userID, appID(req.AppID), req.Data); err != nil {
		if err == common.ErrEmptySnapshotRejected {
			writeError(w, http.StatusBadRequest, common.ErrEmptySnapshotRejected.Error())
			return
		}
		s.logger.Error(r.Context(), "snapshot save failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "save failed")
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Success: true})
}

type loadResponse struct {
	Success bool   `json:"success"`
	Data    string `json:"data"`
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r.Context())
	record, err := s.syncdata.Load(r.Context(), userID, appID(r.URL.Query().Get("app_id")))
	if err != nil {
		if err == common.ErrorNotFound {
			writeError(w, http.StatusNotFound, "no sync data")
			return
		}
		s.logger.Error(r.Context(), "snapshot load failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "load failed")
		return
	}

	writeJSON(w, http.StatusOK, loadResponse{Success: true, Data: record.Data})
}

type checkResponse struct {
	Success   bool  `json:"success"`
	Exists    bool  `json:"exists"`
	SizeBytes int64 `json:"size_bytes"`
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r.Context())
	exists, size, err := s.syncdata.Check(r.Context(), userID, appID(r.URL.Query().Get("app_id")))
	if err != nil {
		s.logger.Error(r.Context(), "snapshot check failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "check failed")
		return
	}

	writeJSON(w, http.StatusOK, checkResponse{Success: true, Exists: exists, SizeBytes: size})
}

type appendRequest struct {
	AppID  string        `json:"app_id"`
	Events []annot.Event `json:"events"`
}

func (s *Server) handleAppendEvents(w http.ResponseWriter, r *http.Request) {
	var req appendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := getUserID(r.Context())
	if err := s.syncdata.AppendEvents(r.Context(), userID, appID(req.AppID), req.Events); err != nil {
		s.logger.Error(r.Context(), "event append failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "append failed")
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Success: true})
}

type eventsResponse struct {
	Success    bool          `json:"success"`
	Events     []annot.Event `json:"events"`
	NextCursor int64         `json:"next_cursor"`
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	since, _ := strconv.ParseInt(q.Get("since"), 10, 64)
	limit, _ := strconv.Atoi(q.Get("limit"))

	userID := getUserID(r.Context())
	events, cursor, err := s.syncdata.ListEvents(r.Context(), userID, appID(q.Get("app_id")), since, limit)
	if err != nil {
		s.logger.Error(r.Context(), "event list failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	if events == nil {
		events = []annot.Event{}
	}

	writeJSON(w, http.StatusOK, eventsResponse{Success: true, Events: events, NextCursor: cursor})
}

func appID(v string) string {
	if v == "" {
		return common.DefaultAppID
	}
	return v
}
