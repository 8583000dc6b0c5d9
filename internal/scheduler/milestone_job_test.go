package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/miklosbodnar/eventdeck-backend/pkg/db/models"
	"github.com/miklosbodnar/eventdeck-backend/pkg/enums"
)

type fakeUpcomingRepo struct {
	events       []models.Event
	seenStatuses []enums.EventStatus
}

func (f *fakeUpcomingRepo) FindUpcoming(_ context.Context, statuses []enums.EventStatus, _ time.Time) ([]models.Event, error) {
	f.seenStatuses = statuses
	return f.events, nil
}

type dispatchCall struct {
	eventID    uuid.UUID
	milestone  enums.MilestoneType
	recipients []string
}

type fakeDispatcher struct {
	calls []dispatchCall
}

func (f *fakeDispatcher) Dispatch(_ context.Context, event models.Event, milestone enums.MilestoneType, recipientIDs []string) (int, error) {
	f.calls = append(f.calls, dispatchCall{eventID: event.ID, milestone: milestone, recipients: recipientIDs})
	return len(recipientIDs), nil
}

func upcomingEvent(startTime time.Time, logs []enums.MilestoneType, attendees ...string) models.Event {
	event := models.Event{
		ID:        uuid.New(),
		Name:      "Upcoming",
		StartTime: startTime,
		Status:    enums.EventStatusAnnounced,
	}
	for _, milestone := range logs {
		event.NotificationLogs = append(event.NotificationLogs, models.NotificationLog{
			EventID: event.ID,
			Type:    milestone,
		})
	}
	for _, id := range attendees {
		event.Reactions = append(event.Reactions, models.EventReaction{
			EventID:       event.ID,
			DiscordUserID: id,
			Emoji:         "✅",
		})
	}
	return event
}

func newMilestoneTestJob(t *testing.T, repo *fakeUpcomingRepo, d *fakeDispatcher, now time.Time) Job {
	t.Helper()
	job, err := NewMilestoneJob(MilestoneJobParams{
		Logger:      testLogger(),
		Repository:  repo,
		Dispatcher:  d,
		AttendEmoji: "✅",
		Now:         func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("NewMilestoneJob: %v", err)
	}
	return job
}

func TestMilestoneJobDispatchesDueMilestones(t *testing.T) {
	now := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)
	event := upcomingEvent(now.Add(20*time.Hour), nil, "alice", "bob")
	repo := &fakeUpcomingRepo{events: []models.Event{event}}
	d := &fakeDispatcher{}

	if err := newMilestoneTestJob(t, repo, d, now).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(d.calls) != 2 {
		t.Fatalf("expected 2 dispatches, got %d", len(d.calls))
	}
	if d.calls[0].milestone != enums.MilestonePre3D || d.calls[1].milestone != enums.MilestonePre24H {
		t.Fatalf("unexpected milestone order: %v, %v", d.calls[0].milestone, d.calls[1].milestone)
	}
	for _, call := range d.calls {
		if len(call.recipients) != 2 {
			t.Fatalf("expected 2 recipients, got %v", call.recipients)
		}
	}
}

func TestMilestoneJobSkipsLoggedMilestones(t *testing.T) {
	now := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)
	event := upcomingEvent(now.Add(20*time.Hour), []enums.MilestoneType{enums.MilestonePre3D}, "alice")
	repo := &fakeUpcomingRepo{events: []models.Event{event}}
	d := &fakeDispatcher{}

	if err := newMilestoneTestJob(t, repo, d, now).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(d.calls) != 1 || d.calls[0].milestone != enums.MilestonePre24H {
		t.Fatalf("expected only the 24h milestone, got %+v", d.calls)
	}
}

func TestMilestoneJobDispatchesZeroRecipientMilestones(t *testing.T) {
	// Zero attendees still goes through the dispatcher so the milestone
	// gets its log row and stops re-firing.
	now := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)
	event := upcomingEvent(now.Add(30*time.Minute), []enums.MilestoneType{enums.MilestonePre3D, enums.MilestonePre24H})
	repo := &fakeUpcomingRepo{events: []models.Event{event}}
	d := &fakeDispatcher{}

	if err := newMilestoneTestJob(t, repo, d, now).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(d.calls) != 1 || d.calls[0].milestone != enums.MilestonePre1H {
		t.Fatalf("expected the 1h milestone, got %+v", d.calls)
	}
	if len(d.calls[0].recipients) != 0 {
		t.Fatalf("expected no recipients, got %v", d.calls[0].recipients)
	}
}

func TestMilestoneJobCoversScheduledAndAnnounced(t *testing.T) {
	now := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)
	repo := &fakeUpcomingRepo{}
	d := &fakeDispatcher{}

	if err := newMilestoneTestJob(t, repo, d, now).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []enums.EventStatus{enums.EventStatusScheduled, enums.EventStatusAnnounced}
	if len(repo.seenStatuses) != len(want) {
		t.Fatalf("expected statuses %v, got %v", want, repo.seenStatuses)
	}
	for i := range want {
		if repo.seenStatuses[i] != want[i] {
			t.Fatalf("expected statuses %v, got %v", want, repo.seenStatuses)
		}
	}
}
