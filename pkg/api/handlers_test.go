package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/harborview-rehab/scheduler/pkg/core/engine"
	"github.com/harborview-rehab/scheduler/pkg/core/model"
	"github.com/harborview-rehab/scheduler/pkg/db"
)

// stubStore backs the engine with a fixed manager, therapist and cycle and
// records inserts in memory
type stubStore struct {
	shifts []model.Shift
}

func (s *stubStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	switch id {
	case "mgr-1":
		return &model.User{ID: id, FirstName: "Dana", LastName: "Reyes", Role: model.RoleManager, Active: true}, nil
	case "ther-1":
		return &model.User{ID: id, FirstName: "Sam", LastName: "Okafor", Role: model.RoleTherapist, Active: true, Employment: model.FullTime}, nil
	}
	return nil, db.ErrNotFound
}

func (s *stubStore) GetWorkPattern(ctx context.Context, userID string) (*model.WorkPattern, error) {
	return nil, db.ErrNotFound
}

func (s *stubStore) ListOverrides(ctx context.Context, cycleID, userID, date string) ([]model.AvailabilityOverride, error) {
	return nil, nil
}

func (s *stubStore) GetCycle(ctx context.Context, id string) (*model.ScheduleCycle, error) {
	if id != "cycle-1" {
		return nil, db.ErrNotFound
	}
	return &model.ScheduleCycle{ID: id, StartDate: "2026-03-01", EndDate: "2026-04-11"}, nil
}

func (s *stubStore) GetShift(ctx context.Context, id string) (*model.Shift, error) {
	return nil, db.ErrNotFound
}

func (s *stubStore) FindShift(ctx context.Context, cycleID, userID, date string, shiftType model.ShiftType) (*model.Shift, error) {
	return nil, db.ErrNotFound
}

func (s *stubStore) ListSlotShifts(ctx context.Context, cycleID, date string, shiftType model.ShiftType) ([]model.Shift, error) {
	return nil, nil
}

func (s *stubStore) ListUserShiftsBetween(ctx context.Context, userID, from, to string) ([]model.Shift, error) {
	return nil, nil
}

func (s *stubStore) InsertShift(ctx context.Context, shift *model.Shift) error {
	s.shifts = append(s.shifts, *shift)
	return nil
}

func (s *stubStore) UpdateShiftSlot(ctx context.Context, shift *model.Shift) error { return nil }

func (s *stubStore) SetShiftRole(ctx context.Context, shiftID string, role model.ShiftRole) error {
	return nil
}

func (s *stubStore) SetShiftOverride(ctx context.Context, shiftID, reason, by, at string) error {
	return nil
}

func (s *stubStore) DeleteShift(ctx context.Context, shiftID string) error { return nil }

type noopSideEffects struct{}

func (noopSideEffects) WriteAuditLog(ctx context.Context, actorID, action, targetType, targetID string) {
}

func (noopSideEffects) NotifyUsers(ctx context.Context, userIDs []string, eventType, title, message, targetType, targetID string) {
}

func newTestRouter(t *testing.T) (*stubStore, http.Handler) {
	t.Helper()
	store := &stubStore{}
	eng := engine.New(store, noopSideEffects{}, noopSideEffects{}, engine.DefaultLimits(), zap.NewNop())
	auth := NewTokenAuthenticator(map[string]string{"mgr-token": "mgr-1", "ther-token": "ther-1"})
	h := NewHandler(eng, auth, zap.NewNop())
	return store, NewRouter(h, nil)
}

func postAction(router http.Handler, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/schedule/actions", strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	_, router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestApplyActionSuccess(t *testing.T) {
	store, router := newTestRouter(t)

	rec := postAction(router, "mgr-token", `{
		"type": "assign",
		"cycleId": "cycle-1",
		"userId": "ther-1",
		"date": "2026-03-10",
		"shiftType": "day"
	}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, store.shifts, 1)

	var result engine.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Contains(t, result.Message, "Sam Okafor")
	require.NotNil(t, result.Undo)
	assert.Equal(t, model.ActionRemove, result.Undo.Type)
}

func TestApplyActionUnauthenticated(t *testing.T) {
	_, router := newTestRouter(t)

	rec := postAction(router, "", `{"type":"assign"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postAction(router, "wrong-token", `{"type":"assign"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestApplyActionMalformedBody(t *testing.T) {
	_, router := newTestRouter(t)

	rec := postAction(router, "mgr-token", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, engine.CodeInvalidRequest, resp.Code)
}

func TestApplyActionStatusMapping(t *testing.T) {
	_, router := newTestRouter(t)

	// Authenticated non-manager -> 403
	rec := postAction(router, "ther-token", `{
		"type": "assign", "cycleId": "cycle-1",
		"userId": "ther-1", "date": "2026-03-10", "shiftType": "day"
	}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Unknown cycle -> 404
	rec = postAction(router, "mgr-token", `{
		"type": "assign", "cycleId": "missing",
		"userId": "ther-1", "date": "2026-03-10", "shiftType": "day"
	}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Structural problem -> 400
	rec = postAction(router, "mgr-token", `{"type": "assign", "cycleId": "cycle-1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Business-rule conflict -> 409
	rec = postAction(router, "mgr-token", `{
		"type": "assign", "cycleId": "cycle-1",
		"userId": "ther-1", "date": "2026-05-01", "shiftType": "day"
	}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, engine.CodeDateOutOfRange, resp.Code)
}

func TestTokenAuthenticator(t *testing.T) {
	auth := NewTokenAuthenticator(map[string]string{"tok": "user-1"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")
	userID, err := auth.Authenticate(req)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	req.Header.Set("Authorization", "Basic tok")
	_, err = auth.Authenticate(req)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	req.Header.Del("Authorization")
	_, err = auth.Authenticate(req)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
