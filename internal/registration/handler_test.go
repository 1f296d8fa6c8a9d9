package registration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ibgp-events/backend/internal/session"
)

type memSessions struct {
	sessions map[uuid.UUID]*session.Session
	locks    map[uuid.UUID]bool
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: make(map[uuid.UUID]*session.Session), locks: make(map[uuid.UUID]bool)}
}

func (m *memSessions) Save(_ context.Context, s *session.Session) error {
	m.sessions[s.ID] = s
	return nil
}

func (m *memSessions) Get(_ context.Context, id uuid.UUID) (*session.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	return s, nil
}

func (m *memSessions) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.sessions, id)
	return nil
}

func (m *memSessions) AcquireSubmitLock(_ context.Context, id uuid.UUID) (bool, error) {
	if m.locks[id] {
		return false, nil
	}
	m.locks[id] = true
	return true, nil
}

func (m *memSessions) ReleaseSubmitLock(_ context.Context, id uuid.UUID) {
	delete(m.locks, id)
}

func newSubmitRouter(store session.Storage, repo Repo, collab Collaborator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := NewService(repo, collab, testPixCfg, nil)
	h := NewHandler(svc, store, nil)
	r := gin.New()
	r.POST("/sessions/:id/submit", h.Submit)
	r.GET("/registrations/tax-id/:cpf/exists", h.TaxIDExists)
	return r
}

func submit(r *gin.Engine, id string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/sessions/"+id+"/submit", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSubmitEndpointSuccess(t *testing.T) {
	store := newMemSessions()
	sess := validSession()
	if err := store.Save(context.Background(), sess); err != nil {
		t.Fatal(err)
	}
	r := newSubmitRouter(store, &fakeRepo{}, &fakeCollaborator{})

	w := submit(r, sess.ID.String())
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", w.Code, w.Body.String())
	}
	if _, err := store.Get(context.Background(), sess.ID); err != session.ErrNotFound {
		t.Error("session not deleted after successful submit")
	}
}

func TestSubmitEndpointValidation(t *testing.T) {
	store := newMemSessions()
	sess := session.New()
	_ = store.Save(context.Background(), sess)
	r := newSubmitRouter(store, &fakeRepo{}, &fakeCollaborator{})

	w := submit(r, sess.ID.String())
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
}

func TestSubmitEndpointDuplicate(t *testing.T) {
	store := newMemSessions()
	sess := validSession()
	_ = store.Save(context.Background(), sess)
	r := newSubmitRouter(store, &fakeRepo{exists: true}, &fakeCollaborator{})

	w := submit(r, sess.ID.String())
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
}

func TestSubmitEndpointCollaboratorDown(t *testing.T) {
	store := newMemSessions()
	sess := validSession()
	_ = store.Save(context.Background(), sess)
	r := newSubmitRouter(store, &fakeRepo{}, &fakeCollaborator{submitErr: context.DeadlineExceeded})

	w := submit(r, sess.ID.String())
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
	// The session survives so the user can retry without re-entering data.
	if _, err := store.Get(context.Background(), sess.ID); err != nil {
		t.Error("session lost after transport failure")
	}
}

func TestSubmitEndpointInFlightGuard(t *testing.T) {
	store := newMemSessions()
	sess := validSession()
	_ = store.Save(context.Background(), sess)
	// Simulate a prior attempt that has not resolved.
	store.locks[sess.ID] = true
	r := newSubmitRouter(store, &fakeRepo{}, &fakeCollaborator{})

	w := submit(r, sess.ID.String())
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
}

func TestSubmitEndpointUnknownSession(t *testing.T) {
	r := newSubmitRouter(newMemSessions(), &fakeRepo{}, &fakeCollaborator{})

	w := submit(r, uuid.NewString())
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestTaxIDExistsEndpoint(t *testing.T) {
	r := newSubmitRouter(newMemSessions(), &fakeRepo{exists: true}, &fakeCollaborator{})

	req := httptest.NewRequest(http.MethodGet, "/registrations/tax-id/52998224725/exists", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if body := w.Body.String(); !strings.Contains(body, `"exists":true`) {
		t.Errorf("body = %s, want exists true", body)
	}
}
