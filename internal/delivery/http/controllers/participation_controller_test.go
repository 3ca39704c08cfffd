package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"socialevents/internal/delivery/http/helpers"
	"socialevents/internal/delivery/http/middleware"
	"socialevents/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeParticipationService overrides only the methods each test exercises;
// calling anything else panics on the embedded nil interface.
type fakeParticipationService struct {
	domain.ParticipationService

	registerResult *domain.Participation
	registerErr    error
	lastEventID    string
	lastUserID     string

	approveResult *domain.Participation
	approveErr    error

	rejectResult *domain.Participation
	rejectErr    error
	lastReason   *string

	pendingList []*domain.Participation
	pendingErr  error
}

func (f *fakeParticipationService) Register(_ context.Context, eventID, userID string) (*domain.Participation, error) {
	f.lastEventID = eventID
	f.lastUserID = userID
	return f.registerResult, f.registerErr
}

func (f *fakeParticipationService) ApproveParticipant(_ context.Context, eventID, userID, _ string) (*domain.Participation, error) {
	f.lastEventID = eventID
	f.lastUserID = userID
	return f.approveResult, f.approveErr
}

func (f *fakeParticipationService) RejectParticipant(_ context.Context, eventID, userID, _ string, reason *string) (*domain.Participation, error) {
	f.lastEventID = eventID
	f.lastUserID = userID
	f.lastReason = reason
	return f.rejectResult, f.rejectErr
}

func (f *fakeParticipationService) ListPendingApprovals(_ context.Context, eventID, _ string) ([]*domain.Participation, error) {
	f.lastEventID = eventID
	return f.pendingList, f.pendingErr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func authedRequest(method, target string, body []byte, userID string) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return req.WithContext(middleware.SetIdentity(req.Context(), userID, domain.RoleUser))
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) helpers.APIResponse {
	t.Helper()
	var envelope helpers.APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	return envelope
}

func TestParticipationController_Register(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		result     *domain.Participation
		wantStatus int
		wantCode   string
	}{
		{
			name:       "confirmed registration",
			result:     &domain.Participation{ID: "p-1", EventID: "ev-1", UserID: "alice", Status: domain.ParticipationConfirmed},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "event full",
			serviceErr: domain.ErrEventFull,
			wantStatus: http.StatusConflict,
			wantCode:   helpers.ErrCodeConflict,
		},
		{
			name:       "already registered",
			serviceErr: domain.ErrAlreadyRegistered,
			wantStatus: http.StatusConflict,
			wantCode:   helpers.ErrCodeConflict,
		},
		{
			name:       "unknown event",
			serviceErr: domain.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   helpers.ErrCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeParticipationService{registerResult: tt.result, registerErr: tt.serviceErr}
			ctrl := NewParticipationController(discardLogger(), fake)

			req := authedRequest(http.MethodPost, "/events/ev-1/participations", nil, "alice")
			req.SetPathValue("eventID", "ev-1")
			rr := httptest.NewRecorder()

			ctrl.Register(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			assert.Equal(t, "ev-1", fake.lastEventID)
			assert.Equal(t, "alice", fake.lastUserID)
			envelope := decodeEnvelope(t, rr)
			if tt.wantCode != "" {
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantCode, envelope.Error.Code)
			} else {
				assert.Nil(t, envelope.Error)
			}
		})
	}
}

func TestParticipationController_RegisterUnauthenticated(t *testing.T) {
	ctrl := NewParticipationController(discardLogger(), &fakeParticipationService{})

	req := httptest.NewRequest(http.MethodPost, "/events/ev-1/participations", nil)
	req.SetPathValue("eventID", "ev-1")
	rr := httptest.NewRecorder()

	ctrl.Register(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestParticipationController_ApproveParticipant(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "approved",
			wantStatus: http.StatusOK,
		},
		{
			name:       "not organizer",
			serviceErr: domain.ErrForbidden,
			wantStatus: http.StatusForbidden,
			wantCode:   helpers.ErrCodeForbidden,
		},
		{
			name:       "full at approval time",
			serviceErr: domain.ErrEventFull,
			wantStatus: http.StatusConflict,
			wantCode:   helpers.ErrCodeConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeParticipationService{
				approveResult: &domain.Participation{ID: "p-1", Status: domain.ParticipationConfirmed},
				approveErr:    tt.serviceErr,
			}
			ctrl := NewParticipationController(discardLogger(), fake)

			req := authedRequest(http.MethodPost, "/events/ev-1/participations/bob/approve", nil, "organizer-1")
			req.SetPathValue("eventID", "ev-1")
			req.SetPathValue("userID", "bob")
			rr := httptest.NewRecorder()

			ctrl.ApproveParticipant(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			if tt.wantCode != "" {
				envelope := decodeEnvelope(t, rr)
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantCode, envelope.Error.Code)
			}
		})
	}
}

func TestParticipationController_RejectParticipant(t *testing.T) {
	t.Run("reason forwarded to service", func(t *testing.T) {
		fake := &fakeParticipationService{
			rejectResult: &domain.Participation{ID: "p-1", Status: domain.ParticipationRejected},
		}
		ctrl := NewParticipationController(discardLogger(), fake)

		req := authedRequest(http.MethodPost, "/events/ev-1/participations/bob/reject",
			[]byte(`{"reason":"over capacity for this venue"}`), "organizer-1")
		req.SetPathValue("eventID", "ev-1")
		req.SetPathValue("userID", "bob")
		rr := httptest.NewRecorder()

		ctrl.RejectParticipant(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		require.NotNil(t, fake.lastReason)
		assert.Equal(t, "over capacity for this venue", *fake.lastReason)
	})

	t.Run("blank reason rejected", func(t *testing.T) {
		ctrl := NewParticipationController(discardLogger(), &fakeParticipationService{})

		req := authedRequest(http.MethodPost, "/events/ev-1/participations/bob/reject",
			[]byte(`{"reason":"  "}`), "organizer-1")
		req.SetPathValue("eventID", "ev-1")
		req.SetPathValue("userID", "bob")
		rr := httptest.NewRecorder()

		ctrl.RejectParticipant(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestParticipationController_ListPendingApprovals(t *testing.T) {
	t.Run("empty list encodes as array", func(t *testing.T) {
		fake := &fakeParticipationService{pendingList: nil}
		ctrl := NewParticipationController(discardLogger(), fake)

		req := authedRequest(http.MethodGet, "/events/ev-1/participations/pending", nil, "organizer-1")
		req.SetPathValue("eventID", "ev-1")
		rr := httptest.NewRecorder()

		ctrl.ListPendingApprovals(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"data":[]`)
	})

	t.Run("forbidden for non-organizer", func(t *testing.T) {
		fake := &fakeParticipationService{pendingErr: domain.ErrForbidden}
		ctrl := NewParticipationController(discardLogger(), fake)

		req := authedRequest(http.MethodGet, "/events/ev-1/participations/pending", nil, "mallory")
		req.SetPathValue("eventID", "ev-1")
		rr := httptest.NewRecorder()

		ctrl.ListPendingApprovals(rr, req)

		require.Equal(t, http.StatusForbidden, rr.Code)
	})
}
