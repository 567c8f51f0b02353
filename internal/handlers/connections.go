package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/skillswap/backend/internal/connections"
	"github.com/skillswap/backend/internal/logging"
	"github.com/skillswap/backend/internal/models"
)

// ConnectionHandler exposes the connection lifecycle over HTTP.
type ConnectionHandler struct {
	Connections ConnectionService
	Sessions    AccessVerifier
	Limiter     RateLimiter
}

// List handles GET /api/v1/connections.
func (h ConnectionHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, ok := h.begin(w, r, http.MethodGet, "")
	if !ok {
		return
	}

	listing, err := h.Connections.List(ctx, actorID)
	if err != nil {
		logging.FromContext(ctx).Error("list connections failed", "actorId", actorID, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, errorBody("internal", "internal error"))
		return
	}

	respondJSON(ctx, w, http.StatusOK, listing)
}

// Request handles POST /api/v1/connections/request.
func (h ConnectionHandler) Request(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, ok := h.begin(w, r, http.MethodPost, "connections-request")
	if !ok {
		return
	}

	var req requestConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(ctx).Warn("invalid connection request payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, errorBody("bad_request", "invalid request body"))
		return
	}

	created, err := h.Connections.Request(ctx, actorID, req.UserID.normalized())
	if err != nil {
		h.respondError(ctx, w, err, "request connection failed", actorID)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, connectionResponse{Connection: created})
}

// Accept handles POST /api/v1/connections/accept.
func (h ConnectionHandler) Accept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, ok := h.begin(w, r, http.MethodPost, "connections-accept")
	if !ok {
		return
	}

	var req respondConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(ctx).Warn("invalid accept payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, errorBody("bad_request", "invalid request body"))
		return
	}

	req.ConnectionID = strings.TrimSpace(req.ConnectionID)
	if req.ConnectionID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, errorBody("bad_request", "connection_id is required"))
		return
	}

	updated, err := h.Connections.Accept(ctx, actorID, req.ConnectionID)
	if err != nil {
		h.respondError(ctx, w, err, "accept connection failed", actorID)
		return
	}

	respondJSON(ctx, w, http.StatusOK, connectionResponse{Connection: updated})
}

// Reject handles POST /api/v1/connections/reject.
func (h ConnectionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, ok := h.begin(w, r, http.MethodPost, "connections-reject")
	if !ok {
		return
	}

	var req respondConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(ctx).Warn("invalid reject payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, errorBody("bad_request", "invalid request body"))
		return
	}

	req.ConnectionID = strings.TrimSpace(req.ConnectionID)
	if req.ConnectionID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, errorBody("bad_request", "connection_id is required"))
		return
	}

	if err := h.Connections.Reject(ctx, actorID, req.ConnectionID); err != nil {
		h.respondError(ctx, w, err, "reject connection failed", actorID)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]bool{"success": true})
}

// begin runs the checks shared by every connection endpoint: method guard,
// dependency guard, rate limiting (skipped when limitScope is empty), and
// bearer-token authentication. It returns the authenticated actor id, or
// false after having written the failure response.
func (h ConnectionHandler) begin(w http.ResponseWriter, r *http.Request, method, limitScope string) (string, bool) {
	if r.Method != method {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return "", false
	}

	ctx := r.Context()

	if h.Connections == nil || h.Sessions == nil {
		logging.FromContext(ctx).Error("connection dependencies unavailable", "hasService", h.Connections != nil, "hasSessions", h.Sessions != nil)
		respondJSON(ctx, w, http.StatusInternalServerError, errorBody("internal", "connection services unavailable"))
		return "", false
	}

	if limitScope != "" && !allowRequest(h.Limiter, r, limitScope) {
		respondJSON(ctx, w, http.StatusTooManyRequests, errorBody("rate_limited", "too many requests"))
		return "", false
	}

	return h.authenticate(w, r)
}

func (h ConnectionHandler) authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
	ctx := r.Context()

	token := bearerToken(r)
	if token == "" {
		respondJSON(ctx, w, http.StatusUnauthorized, errorBody("unauthenticated", "missing bearer token"))
		return "", false
	}

	actorID, err := h.Sessions.Verify(ctx, token)
	if err != nil {
		logging.FromContext(ctx).Warn("access token rejected", "error", err)
		respondJSON(ctx, w, http.StatusUnauthorized, errorBody("unauthenticated", "invalid or expired token"))
		return "", false
	}

	return actorID, true
}

func (h ConnectionHandler) respondError(ctx context.Context, w http.ResponseWriter, err error, msg, actorID string) {
	logger := logging.FromContext(ctx)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, connections.ErrInvalidTarget):
		status = http.StatusBadRequest
	case errors.Is(err, connections.ErrDuplicate), errors.Is(err, connections.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, connections.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, connections.ErrUnauthorized):
		status = http.StatusForbidden
	}

	if status == http.StatusInternalServerError {
		logger.Error(msg, "actorId", actorID, "error", err)
		respondJSON(ctx, w, status, errorBody("internal", "internal error"))
		return
	}

	logger.Warn(msg, "actorId", actorID, "error", err)
	respondJSON(ctx, w, status, errorBody(connections.Code(err), err.Error()))
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// userID accepts both string and numeric JSON encodings. Historical clients
// sent the target id as a number; everything downstream compares strings.
// String ids pass through untouched so values like "007" keep their exact
// form; only genuine JSON numbers are canonicalized.
type userID struct {
	value   string
	numeric bool
}

func (u *userID) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		u.value = asString
		u.numeric = false
		return nil
	}
	var asNumber json.Number
	if err := json.Unmarshal(data, &asNumber); err != nil {
		return err
	}
	u.value = asNumber.String()
	u.numeric = true
	return nil
}

func (u userID) normalized() string {
	s := strings.TrimSpace(u.value)
	if !u.numeric {
		return s
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return s
}

type requestConnectionRequest struct {
	UserID userID `json:"user_id"`
}

type respondConnectionRequest struct {
	ConnectionID string `json:"connection_id"`
}

type connectionResponse struct {
	Connection models.Connection `json:"connection"`
}

func errorBody(code, message string) map[string]string {
	return map[string]string{"code": code, "error": message}
}
