package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"socialevents/internal/domain"
	"socialevents/internal/repository/memory"
)

const testTimeout = 5 * time.Second

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sinkRecorder captures notifications for assertions; err, if set, fails
// every delivery.
type sinkRecorder struct {
	mu   sync.Mutex
	sent []*domain.Notification
	err  error
}

func (r *sinkRecorder) Notify(ctx context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, n)
	return nil
}

func (r *sinkRecorder) byKind(kind domain.NotificationKind) []*domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Notification
	for _, n := range r.sent {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

type participationFixture struct {
	events         *memory.EventRepository
	participations *memory.ParticipationRepository
	favorites      *memory.FavoriteRepository
	sink           *sinkRecorder
	svc            domain.ParticipationService
}

func newParticipationFixture() *participationFixture {
	participations := memory.NewParticipationRepository()
	events := memory.NewEventRepository(participations)
	favorites := memory.NewFavoriteRepository()
	sink := &sinkRecorder{}
	svc := NewParticipationService(events, participations, favorites, sink, domain.DefaultLimitsPolicy(), testLogger(), testTimeout)
	return &participationFixture{
		events:         events,
		participations: participations,
		favorites:      favorites,
		sink:           sink,
		svc:            svc,
	}
}

func (f *participationFixture) seedEvent(t interface{ Fatalf(string, ...any) }, event *domain.Event) *domain.Event {
	if event.Title == "" {
		event.Title = "Picnic"
	}
	if event.OrganizerID == "" {
		event.OrganizerID = "organizer-1"
	}
	if event.MaxAttendees == 0 {
		event.MaxAttendees = 10
	}
	if event.Date.IsZero() {
		event.Date = time.Now().Add(48 * time.Hour)
	}
	if err := f.events.Create(context.Background(), event); err != nil {
		t.Fatalf("seed event: %v", err)
	}
	return event
}
