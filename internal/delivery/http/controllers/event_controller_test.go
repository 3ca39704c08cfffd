package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"socialevents/internal/delivery/http/helpers"
	"socialevents/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEventService struct {
	domain.EventService

	createErr   error
	lastCreated *domain.Event
	lastOrgID   string
	lastRole    domain.Role

	listPage    *domain.EventPage
	listErr     error
	lastFilters domain.EventFilters
	lastParams  domain.PaginationParams
}

func (f *fakeEventService) CreateEvent(_ context.Context, organizerID string, role domain.Role, event *domain.Event) error {
	f.lastOrgID = organizerID
	f.lastRole = role
	f.lastCreated = event
	if f.createErr != nil {
		return f.createErr
	}
	event.ID = "ev-created"
	return nil
}

func (f *fakeEventService) ListEvents(_ context.Context, filters domain.EventFilters, params domain.PaginationParams) (*domain.EventPage, error) {
	f.lastFilters = filters
	f.lastParams = params
	return f.listPage, f.listErr
}

func TestEventController_CreateEvent(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		serviceErr     error
		wantStatus     int
		wantBodySubstr string
	}{
		{
			name:       "success",
			body:       `{"title":"Sunday hike","date":"2026-09-12T09:00:00Z","max_attendees":12,"category":"HIKING"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:           "missing title",
			body:           `{"date":"2026-09-12T09:00:00Z","max_attendees":12}`,
			wantStatus:     http.StatusBadRequest,
			wantBodySubstr: "title is required",
		},
		{
			name:           "zero capacity",
			body:           `{"title":"Hike","date":"2026-09-12T09:00:00Z","max_attendees":0}`,
			wantStatus:     http.StatusBadRequest,
			wantBodySubstr: "max_attendees must be positive",
		},
		{
			name:           "unknown category",
			body:           `{"title":"Hike","date":"2026-09-12T09:00:00Z","max_attendees":5,"category":"KNITTING"}`,
			wantStatus:     http.StatusBadRequest,
			wantBodySubstr: "category",
		},
		{
			name:           "out of range coordinates",
			body:           `{"title":"Hike","date":"2026-09-12T09:00:00Z","max_attendees":5,"coordinates":{"latitude":91,"longitude":0}}`,
			wantStatus:     http.StatusBadRequest,
			wantBodySubstr: "latitude",
		},
		{
			name:       "quota exceeded",
			body:       `{"title":"Hike","date":"2026-09-12T09:00:00Z","max_attendees":5}`,
			serviceErr: domain.ErrQuotaExceeded,
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeEventService{createErr: tt.serviceErr}
			ctrl := NewEventController(discardLogger(), fake)

			req := authedRequest(http.MethodPost, "/events", []byte(tt.body), "organizer-1")
			rr := httptest.NewRecorder()

			ctrl.CreateEvent(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			if tt.wantBodySubstr != "" {
				assert.Contains(t, rr.Body.String(), tt.wantBodySubstr)
			}
			if tt.wantStatus == http.StatusCreated {
				assert.Equal(t, "organizer-1", fake.lastOrgID)
				assert.Equal(t, domain.RoleUser, fake.lastRole)
				assert.Contains(t, rr.Body.String(), "ev-created")
			}
		})
	}
}

func TestEventController_ListEventsFilters(t *testing.T) {
	fake := &fakeEventService{listPage: &domain.EventPage{Items: []*domain.Event{}, TotalCount: 0}}
	ctrl := NewEventController(discardLogger(), fake)

	target := "/events?category=SPORT&location=Lyon&max_price=15&has_available_spots=true&page=2&page_size=5"
	req := authedRequest(http.MethodGet, target, nil, "alice")
	rr := httptest.NewRecorder()

	ctrl.ListEvents(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, fake.lastFilters.Category)
	assert.Equal(t, domain.CategorySport, *fake.lastFilters.Category)
	require.NotNil(t, fake.lastFilters.Location)
	assert.Equal(t, "Lyon", *fake.lastFilters.Location)
	require.NotNil(t, fake.lastFilters.MaxPrice)
	assert.Equal(t, 15.0, *fake.lastFilters.MaxPrice)
	assert.True(t, fake.lastFilters.HasAvailableSpots)
	assert.Equal(t, 2, fake.lastParams.Page)
	assert.Equal(t, 5, fake.lastParams.PageSize)
}

func TestEventController_ListEventsBadFilters(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"unknown category", "/events?category=KNITTING"},
		{"bad date_from", "/events?date_from=tomorrow"},
		{"negative max_price", "/events?max_price=-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewEventController(discardLogger(), &fakeEventService{})
			req := authedRequest(http.MethodGet, tt.target, nil, "alice")
			rr := httptest.NewRecorder()

			ctrl.ListEvents(rr, req)

			require.Equal(t, http.StatusBadRequest, rr.Code)
			envelope := decodeEnvelope(t, rr)
			require.NotNil(t, envelope.Error)
			assert.Equal(t, helpers.ErrCodeBadRequest, envelope.Error.Code)
		})
	}
}
