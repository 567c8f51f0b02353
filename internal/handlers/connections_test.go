package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/skillswap/backend/internal/connections"
	"github.com/skillswap/backend/internal/models"
)

type stubConnectionService struct {
	requestFn func(ctx context.Context, actorID, targetID string) (models.Connection, error)
	acceptFn  func(ctx context.Context, actorID, connectionID string) (models.Connection, error)
	rejectFn  func(ctx context.Context, actorID, connectionID string) error
	listFn    func(ctx context.Context, actorID string) (connections.Listing, error)
}

func (s stubConnectionService) Request(ctx context.Context, actorID, targetID string) (models.Connection, error) {
	if s.requestFn == nil {
		return models.Connection{}, errors.New("unexpected Request call")
	}
	return s.requestFn(ctx, actorID, targetID)
}

func (s stubConnectionService) Accept(ctx context.Context, actorID, connectionID string) (models.Connection, error) {
	if s.acceptFn == nil {
		return models.Connection{}, errors.New("unexpected Accept call")
	}
	return s.acceptFn(ctx, actorID, connectionID)
}

func (s stubConnectionService) Reject(ctx context.Context, actorID, connectionID string) error {
	if s.rejectFn == nil {
		return errors.New("unexpected Reject call")
	}
	return s.rejectFn(ctx, actorID, connectionID)
}

func (s stubConnectionService) List(ctx context.Context, actorID string) (connections.Listing, error) {
	if s.listFn == nil {
		return connections.Listing{}, errors.New("unexpected List call")
	}
	return s.listFn(ctx, actorID)
}

type stubVerifier struct {
	userID string
	err    error
}

func (s stubVerifier) Verify(_ context.Context, token string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if token == "" {
		return "", errors.New("empty token")
	}
	return s.userID, nil
}

type denyAllLimiter struct{}

func (denyAllLimiter) Allow(string) bool { return false }

func authedRequest(method, target, body string) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	r.Header.Set("Authorization", "Bearer test-token")
	return r
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestConnectionRequestSuccess(t *testing.T) {
	var gotActor, gotTarget string
	handler := ConnectionHandler{
		Connections: stubConnectionService{
			requestFn: func(_ context.Context, actorID, targetID string) (models.Connection, error) {
				gotActor, gotTarget = actorID, targetID
				return models.Connection{ID: "conn-1", RequesterID: actorID, RecipientID: targetID, Status: models.ConnectionStatusPending}, nil
			},
		},
		Sessions: stubVerifier{userID: "alice"},
	}

	rec := httptest.NewRecorder()
	handler.Request(rec, authedRequest(http.MethodPost, "/api/v1/connections/request", `{"user_id":"bob"}`))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	if gotActor != "alice" || gotTarget != "bob" {
		t.Fatalf("unexpected service args: actor=%q target=%q", gotActor, gotTarget)
	}

	var body struct {
		Connection models.Connection `json:"connection"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Connection.ID != "conn-1" || body.Connection.Status != models.ConnectionStatusPending {
		t.Fatalf("unexpected connection payload: %+v", body.Connection)
	}
}

func TestConnectionRequestNumericUserID(t *testing.T) {
	var gotTarget string
	handler := ConnectionHandler{
		Connections: stubConnectionService{
			requestFn: func(_ context.Context, _, targetID string) (models.Connection, error) {
				gotTarget = targetID
				return models.Connection{ID: "conn-1"}, nil
			},
		},
		Sessions: stubVerifier{userID: "alice"},
	}

	rec := httptest.NewRecorder()
	handler.Request(rec, authedRequest(http.MethodPost, "/api/v1/connections/request", `{"user_id":42}`))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	if gotTarget != "42" {
		t.Fatalf("expected numeric id normalized to %q, got %q", "42", gotTarget)
	}
}

func TestConnectionRequestKeepsStringUserIDVerbatim(t *testing.T) {
	var gotTarget string
	handler := ConnectionHandler{
		Connections: stubConnectionService{
			requestFn: func(_ context.Context, _, targetID string) (models.Connection, error) {
				gotTarget = targetID
				return models.Connection{ID: "conn-1"}, nil
			},
		},
		Sessions: stubVerifier{userID: "alice"},
	}

	rec := httptest.NewRecorder()
	handler.Request(rec, authedRequest(http.MethodPost, "/api/v1/connections/request", `{"user_id":"007"}`))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	if gotTarget != "007" {
		t.Fatalf("expected string id passed through verbatim, got %q", gotTarget)
	}
}

func TestConnectionRequestErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{"invalidTarget", connections.ErrInvalidTarget, http.StatusBadRequest, "invalid_target"},
		{"duplicate", connections.ErrDuplicate, http.StatusConflict, "duplicate_connection"},
		{"internal", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := ConnectionHandler{
				Connections: stubConnectionService{
					requestFn: func(context.Context, string, string) (models.Connection, error) {
						return models.Connection{}, tc.serviceErr
					},
				},
				Sessions: stubVerifier{userID: "alice"},
			}

			rec := httptest.NewRecorder()
			handler.Request(rec, authedRequest(http.MethodPost, "/api/v1/connections/request", `{"user_id":"bob"}`))

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d got %d", tc.wantStatus, rec.Code)
			}
			if body := decodeErrorBody(t, rec); body["code"] != tc.wantCode {
				t.Fatalf("expected code %q got %q", tc.wantCode, body["code"])
			}
		})
	}
}

func TestConnectionRequestRejectsBadInput(t *testing.T) {
	handler := ConnectionHandler{
		Connections: stubConnectionService{},
		Sessions:    stubVerifier{userID: "alice"},
	}

	t.Run("methodNotAllowed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.Request(rec, authedRequest(http.MethodGet, "/api/v1/connections/request", ""))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405 got %d", rec.Code)
		}
	})

	t.Run("malformedJSON", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.Request(rec, authedRequest(http.MethodPost, "/api/v1/connections/request", `{"user_id":`))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 got %d", rec.Code)
		}
	})

	t.Run("missingToken", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/v1/connections/request", strings.NewReader(`{"user_id":"bob"}`))
		handler.Request(rec, r)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 got %d", rec.Code)
		}
		if body := decodeErrorBody(t, rec); body["code"] != "unauthenticated" {
			t.Fatalf("expected unauthenticated code, got %q", body["code"])
		}
	})

	t.Run("invalidToken", func(t *testing.T) {
		rejecting := ConnectionHandler{
			Connections: stubConnectionService{},
			Sessions:    stubVerifier{err: errors.New("expired")},
		}
		rec := httptest.NewRecorder()
		rejecting.Request(rec, authedRequest(http.MethodPost, "/api/v1/connections/request", `{"user_id":"bob"}`))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 got %d", rec.Code)
		}
	})

	t.Run("rateLimited", func(t *testing.T) {
		limited := ConnectionHandler{
			Connections: stubConnectionService{},
			Sessions:    stubVerifier{userID: "alice"},
			Limiter:     denyAllLimiter{},
		}
		rec := httptest.NewRecorder()
		limited.Request(rec, authedRequest(http.MethodPost, "/api/v1/connections/request", `{"user_id":"bob"}`))
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429 got %d", rec.Code)
		}
	})

	t.Run("missingDependencies", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ConnectionHandler{}.Request(rec, authedRequest(http.MethodPost, "/api/v1/connections/request", `{"user_id":"bob"}`))
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500 got %d", rec.Code)
		}
	})
}

func TestConnectionAccept(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		handler := ConnectionHandler{
			Connections: stubConnectionService{
				acceptFn: func(_ context.Context, actorID, connectionID string) (models.Connection, error) {
					if actorID != "bob" || connectionID != "conn-1" {
						t.Fatalf("unexpected args: actor=%q id=%q", actorID, connectionID)
					}
					return models.Connection{ID: connectionID, Status: models.ConnectionStatusConnected}, nil
				},
			},
			Sessions: stubVerifier{userID: "bob"},
		}

		rec := httptest.NewRecorder()
		handler.Accept(rec, authedRequest(http.MethodPost, "/api/v1/connections/accept", `{"connection_id":"conn-1"}`))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d", rec.Code)
		}
		var body struct {
			Connection models.Connection `json:"connection"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body.Connection.Status != models.ConnectionStatusConnected {
			t.Fatalf("expected connected status, got %q", body.Connection.Status)
		}
	})

	t.Run("missingConnectionID", func(t *testing.T) {
		handler := ConnectionHandler{Connections: stubConnectionService{}, Sessions: stubVerifier{userID: "bob"}}
		rec := httptest.NewRecorder()
		handler.Accept(rec, authedRequest(http.MethodPost, "/api/v1/connections/accept", `{}`))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 got %d", rec.Code)
		}
	})

	t.Run("errorMapping", func(t *testing.T) {
		cases := []struct {
			name       string
			serviceErr error
			wantStatus int
			wantCode   string
		}{
			{"notFound", connections.ErrNotFound, http.StatusNotFound, "not_found"},
			{"unauthorized", connections.ErrUnauthorized, http.StatusForbidden, "unauthorized"},
			{"invalidState", connections.ErrInvalidState, http.StatusConflict, "invalid_state"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				handler := ConnectionHandler{
					Connections: stubConnectionService{
						acceptFn: func(context.Context, string, string) (models.Connection, error) {
							return models.Connection{}, tc.serviceErr
						},
					},
					Sessions: stubVerifier{userID: "bob"},
				}
				rec := httptest.NewRecorder()
				handler.Accept(rec, authedRequest(http.MethodPost, "/api/v1/connections/accept", `{"connection_id":"conn-1"}`))
				if rec.Code != tc.wantStatus {
					t.Fatalf("expected %d got %d", tc.wantStatus, rec.Code)
				}
				if body := decodeErrorBody(t, rec); body["code"] != tc.wantCode {
					t.Fatalf("expected code %q got %q", tc.wantCode, body["code"])
				}
			})
		}
	})
}

func TestConnectionReject(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		called := false
		handler := ConnectionHandler{
			Connections: stubConnectionService{
				rejectFn: func(_ context.Context, actorID, connectionID string) error {
					called = true
					if actorID != "bob" || connectionID != "conn-1" {
						t.Fatalf("unexpected args: actor=%q id=%q", actorID, connectionID)
					}
					return nil
				},
			},
			Sessions: stubVerifier{userID: "bob"},
		}

		rec := httptest.NewRecorder()
		handler.Reject(rec, authedRequest(http.MethodPost, "/api/v1/connections/reject", `{"connection_id":"conn-1"}`))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d", rec.Code)
		}
		if !called {
			t.Fatal("expected service Reject to be called")
		}
		var body map[string]bool
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if !body["success"] {
			t.Fatalf("expected success body, got %v", body)
		}
	})

	t.Run("unauthorizedActor", func(t *testing.T) {
		handler := ConnectionHandler{
			Connections: stubConnectionService{
				rejectFn: func(context.Context, string, string) error { return connections.ErrUnauthorized },
			},
			Sessions: stubVerifier{userID: "alice"},
		}
		rec := httptest.NewRecorder()
		handler.Reject(rec, authedRequest(http.MethodPost, "/api/v1/connections/reject", `{"connection_id":"conn-1"}`))
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403 got %d", rec.Code)
		}
	})
}

func TestConnectionList(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		handler := ConnectionHandler{
			Connections: stubConnectionService{
				listFn: func(_ context.Context, actorID string) (connections.Listing, error) {
					if actorID != "alice" {
						t.Fatalf("unexpected actor %q", actorID)
					}
					return connections.Listing{
						Pending: []connections.View{{
							Connection: models.Connection{ID: "conn-1", Status: models.ConnectionStatusPending},
							Peer:       connections.PeerView{ID: "bob", DisplayName: "Bob", AvatarRef: "default-avatar.png", Skills: []string{}},
						}},
						Connected: []connections.View{},
					}, nil
				},
			},
			Sessions: stubVerifier{userID: "alice"},
		}

		rec := httptest.NewRecorder()
		handler.List(rec, authedRequest(http.MethodGet, "/api/v1/connections", ""))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d", rec.Code)
		}

		var body connections.Listing
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(body.Pending) != 1 || body.Pending[0].Peer.DisplayName != "Bob" {
			t.Fatalf("unexpected listing: %+v", body)
		}
		if body.Connected == nil || len(body.Connected) != 0 {
			t.Fatalf("expected empty connected array, got %+v", body.Connected)
		}
	})

	t.Run("methodNotAllowed", func(t *testing.T) {
		handler := ConnectionHandler{Connections: stubConnectionService{}, Sessions: stubVerifier{userID: "alice"}}
		rec := httptest.NewRecorder()
		handler.List(rec, authedRequest(http.MethodPost, "/api/v1/connections", ""))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405 got %d", rec.Code)
		}
	})

	t.Run("serviceFailure", func(t *testing.T) {
		handler := ConnectionHandler{
			Connections: stubConnectionService{
				listFn: func(context.Context, string) (connections.Listing, error) {
					return connections.Listing{}, errors.New("store down")
				},
			},
			Sessions: stubVerifier{userID: "alice"},
		}
		rec := httptest.NewRecorder()
		handler.List(rec, authedRequest(http.MethodGet, "/api/v1/connections", ""))
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500 got %d", rec.Code)
		}
	})
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"empty", "", ""},
		{"bearer", "Bearer abc123", "abc123"},
		{"caseInsensitive", "bearer abc123", "abc123"},
		{"noScheme", "abc123", ""},
		{"wrongScheme", "Basic abc123", ""},
		{"padded", "  Bearer   abc123  ", "abc123"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			if got := bearerToken(r); got != tc.want {
				t.Fatalf("bearerToken(%q) = %q, want %q", tc.header, got, tc.want)
			}
		})
	}
}

func TestUserIDNormalized(t *testing.T) {
	cases := []struct {
		name string
		json string
		want string
	}{
		{"string", `{"user_id":"bob"}`, "bob"},
		{"integer", `{"user_id":7}`, "7"},
		{"floatWholeNumber", `{"user_id":7.0}`, "7"},
		{"paddedString", `{"user_id":"  bob  "}`, "bob"},
		{"zeroPaddedString", `{"user_id":"007"}`, "007"},
		{"exponentString", `{"user_id":"1e3"}`, "1e3"},
		{"numericLookingString", `{"user_id":"42"}`, "42"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var req requestConnectionRequest
			if err := json.Unmarshal([]byte(tc.json), &req); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got := req.UserID.normalized(); got != tc.want {
				t.Fatalf("normalized() = %q, want %q", got, tc.want)
			}
		})
	}
}
