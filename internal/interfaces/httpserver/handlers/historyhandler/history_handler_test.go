package historyhandler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/thaiduongngo/cool-asa/internal/domain/chat"
	"github.com/thaiduongngo/cool-asa/internal/interfaces/httpserver/handlers/historyhandler"
)

type mockStore struct {
	saveSessionFunc   func(ctx context.Context, session *chat.ChatSession) (*chat.ChatSession, error)
	listSessionsFunc  func(ctx context.Context) ([]*chat.ChatSession, error)
	getSessionFunc    func(ctx context.Context, id string) (*chat.ChatSession, error)
	deleteSessionFunc func(ctx context.Context, id string) (bool, error)
}

func (m *mockStore) SaveSession(ctx context.Context, session *chat.ChatSession) (*chat.ChatSession, error) {
	return m.saveSessionFunc(ctx, session)
}

func (m *mockStore) ListSessions(ctx context.Context) ([]*chat.ChatSession, error) {
	return m.listSessionsFunc(ctx)
}

func (m *mockStore) GetSession(ctx context.Context, id string) (*chat.ChatSession, error) {
	return m.getSessionFunc(ctx, id)
}

func (m *mockStore) DeleteSession(ctx context.Context, id string) (bool, error) {
	return m.deleteSessionFunc(ctx, id)
}

func (m *mockStore) AddPrompt(ctx context.Context, text string) (*chat.RecentPrompt, error) {
	return nil, errors.New("not implemented")
}

func (m *mockStore) ListPrompts(ctx context.Context) ([]chat.RecentPrompt, error) {
	return nil, errors.New("not implemented")
}

func (m *mockStore) DeletePrompt(ctx context.Context, text string) (bool, error) {
	return false, errors.New("not implemented")
}

func newRouter(store chat.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := historyhandler.NewHistoryHandler(store, zerolog.Nop())

	router := gin.New()
	router.GET("/api/history", handler.List)
	router.GET("/api/history/:id", handler.Get)
	router.POST("/api/history", handler.Save)
	router.DELETE("/api/history/:id", handler.Delete)
	return router
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestListSessions(t *testing.T) {
	store := &mockStore{
		listSessionsFunc: func(ctx context.Context) ([]*chat.ChatSession, error) {
			return []*chat.ChatSession{
				{ID: "b", Title: "newer", LastUpdated: 200},
				{ID: "a", Title: "older", LastUpdated: 100},
			}, nil
		},
	}
	w := doRequest(newRouter(store), http.MethodGet, "/api/history", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var sessions []chat.ChatSession
	if err := json.Unmarshal(w.Body.Bytes(), &sessions); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(sessions) != 2 || sessions[0].ID != "b" {
		t.Fatalf("unexpected payload: %+v", sessions)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	store := &mockStore{
		getSessionFunc: func(ctx context.Context, id string) (*chat.ChatSession, error) {
			return nil, chat.ErrSessionNotFound
		},
	}
	w := doRequest(newRouter(store), http.MethodGet, "/api/history/missing", "")

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSaveSessionEchoesStored(t *testing.T) {
	store := &mockStore{
		saveSessionFunc: func(ctx context.Context, session *chat.ChatSession) (*chat.ChatSession, error) {
			session.ID = "generated"
			session.Title = "derived title"
			session.LastUpdated = 12345
			return session, nil
		},
	}
	body := `{"messages":[{"id":"m1","role":"user","parts":[{"text":"hello"}],"timestamp":1}]}`
	w := doRequest(newRouter(store), http.MethodPost, "/api/history", body)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var stored chat.ChatSession
	if err := json.Unmarshal(w.Body.Bytes(), &stored); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if stored.ID != "generated" || stored.LastUpdated != 12345 {
		t.Fatalf("response must echo the stored session: %+v", stored)
	}
}

func TestSaveSessionRejectsEmptyMessages(t *testing.T) {
	called := false
	store := &mockStore{
		saveSessionFunc: func(ctx context.Context, session *chat.ChatSession) (*chat.ChatSession, error) {
			called = true
			return session, nil
		},
	}
	w := doRequest(newRouter(store), http.MethodPost, "/api/history", `{"messages":[]}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if called {
		t.Fatal("store must not be called for invalid payloads")
	}
}

func TestDeleteSessionAlwaysSucceeds(t *testing.T) {
	for name, existed := range map[string]bool{"present": true, "absent": false} {
		t.Run(name, func(t *testing.T) {
			store := &mockStore{
				deleteSessionFunc: func(ctx context.Context, id string) (bool, error) {
					return existed, nil
				},
			}
			w := doRequest(newRouter(store), http.MethodDelete, "/api/history/some-id", "")

			if w.Code != http.StatusOK {
				t.Fatalf("delete must succeed either way, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestDeleteSessionStoreFailure(t *testing.T) {
	store := &mockStore{
		deleteSessionFunc: func(ctx context.Context, id string) (bool, error) {
			return false, errors.New("redis down")
		},
	}
	w := doRequest(newRouter(store), http.MethodDelete, "/api/history/some-id", "")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", w.Code, w.Body.String())
	}
}
