package service

import (
	"context"
	"errors"
	"testing"

	"cyclone-bot/pkg/googlecal"
	"cyclone-bot/pkg/notion"
	"cyclone-bot/pkg/store"
)

type fakeGoogle struct {
	available bool
	eventLink string
	taskLink  string
	err       error
	events    int
	tasks     int
}

func (f *fakeGoogle) Available() bool { return f.available }

func (f *fakeGoogle) CreateEvent(_ context.Context, _ *store.Analysis) (string, error) {
	if !f.available {
		return "", googlecal.ErrNotConfigured
	}
	f.events++
	return f.eventLink, f.err
}

func (f *fakeGoogle) CreateTask(_ context.Context, _ *store.Analysis) (string, error) {
	if !f.available {
		return "", googlecal.ErrNotConfigured
	}
	f.tasks++
	return f.taskLink, f.err
}

type fakeNotion struct {
	hasCalendarDB bool
	ref           *notion.PageRef
	err           error
	pages         []notion.TaskPage
}

func (f *fakeNotion) HasCalendarDB() bool { return f.hasCalendarDB }

func (f *fakeNotion) CreateTaskPage(_ context.Context, page notion.TaskPage) (*notion.PageRef, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.pages = append(f.pages, page)
	return f.ref, nil
}

func pendingAnalysis() *store.Analysis {
	return &store.Analysis{
		Title:      "牙醫預約",
		Kind:       store.KindEvent,
		StartDate:  "2025-06-11",
		StartTime:  "14:00",
		Confidence: 0.9,
	}
}

func newResolverFixture(google *fakeGoogle, notionFake *fakeNotion) (IResolverService, *fakeCache) {
	cache := newFakeCache()
	return NewResolverService(cache, google, notionFake, nopLogger{}), cache
}

func TestResolveEventSuccess(t *testing.T) {
	google := &fakeGoogle{available: true, eventLink: "https://calendar.google.com/event/1"}
	notionFake := &fakeNotion{hasCalendarDB: true, ref: &notion.PageRef{ID: "p1", URL: "https://www.notion.so/p1"}}
	svc, cache := newResolverFixture(google, notionFake)
	cache.SaveAnalysis("msg-1", pendingAnalysis())

	outcome, err := svc.Resolve(context.Background(), "msg-1", store.ActionEvent)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if outcome.GoogleLink != "https://calendar.google.com/event/1" {
		t.Errorf("google link = %q", outcome.GoogleLink)
	}
	if outcome.NotionURL != "https://www.notion.so/p1" {
		t.Errorf("notion mirror url = %q", outcome.NotionURL)
	}
	if len(notionFake.pages) != 1 || notionFake.pages[0].GoogleLink != outcome.GoogleLink {
		t.Error("mirror page should carry the google link")
	}

	if _, ok := cache.GetAnalysis("msg-1"); ok {
		t.Error("analysis should be consumed on success")
	}
	rec, ok := cache.GetRecord("msg-1")
	if !ok || rec.Action != store.ActionEvent || rec.Title != "牙醫預約" {
		t.Errorf("record = %+v, found = %v", rec, ok)
	}
}

func TestResolveCancelSkipsExternalCalls(t *testing.T) {
	google := &fakeGoogle{available: true}
	notionFake := &fakeNotion{hasCalendarDB: true, ref: &notion.PageRef{}}
	svc, cache := newResolverFixture(google, notionFake)
	cache.SaveAnalysis("msg-1", pendingAnalysis())

	outcome, err := svc.Resolve(context.Background(), "msg-1", store.ActionCancel)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if outcome.Action != store.ActionCancel {
		t.Errorf("action = %q", outcome.Action)
	}
	if google.events+google.tasks != 0 || len(notionFake.pages) != 0 {
		t.Error("cancel must not touch external services")
	}
	if _, ok := cache.GetAnalysis("msg-1"); ok {
		t.Error("cancel still consumes the analysis")
	}
}

func TestResolveExpired(t *testing.T) {
	svc, cache := newResolverFixture(&fakeGoogle{available: true}, &fakeNotion{})

	_, err := svc.Resolve(context.Background(), "gone", store.ActionEvent)
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}
	if cache.claims["gone"] {
		t.Error("claim should be released after an expired lookup")
	}
}

func TestResolveRecoversAfterLateCacheWrite(t *testing.T) {
	google := &fakeGoogle{available: true, eventLink: "link"}
	svc, cache := newResolverFixture(google, &fakeNotion{})

	// A click landing before the analysis is cached expires, and must not
	// leave a claim behind that would block the retry.
	if _, err := svc.Resolve(context.Background(), "msg-1", store.ActionEvent); !errors.Is(err, ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}

	cache.SaveAnalysis("msg-1", pendingAnalysis())
	outcome, err := svc.Resolve(context.Background(), "msg-1", store.ActionEvent)
	if err != nil {
		t.Fatalf("retry after cache write: %v", err)
	}
	if outcome.GoogleLink != "link" {
		t.Errorf("google link = %q", outcome.GoogleLink)
	}
}

func TestResolveSecondClickReportsEarlierOutcome(t *testing.T) {
	google := &fakeGoogle{available: true, eventLink: "link"}
	svc, cache := newResolverFixture(google, &fakeNotion{})
	cache.SaveAnalysis("msg-1", pendingAnalysis())

	if _, err := svc.Resolve(context.Background(), "msg-1", store.ActionEvent); err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	_, err := svc.Resolve(context.Background(), "msg-1", store.ActionNotion)
	var already *AlreadyResolvedError
	if !errors.As(err, &already) {
		t.Fatalf("err = %v, want AlreadyResolvedError", err)
	}
	if already.Record.Action != store.ActionEvent {
		t.Errorf("record action = %q", already.Record.Action)
	}
	if google.events != 1 {
		t.Errorf("google called %d times, want 1", google.events)
	}
}

func TestResolveRaceLoserGetsInFlight(t *testing.T) {
	svc, cache := newResolverFixture(&fakeGoogle{available: true}, &fakeNotion{})
	cache.SaveAnalysis("msg-1", pendingAnalysis())

	// Simulate the loser of a double click: claim already held, no
	// record written yet.
	if !cache.ClaimResolution("msg-1") {
		t.Fatal("setup claim failed")
	}

	_, err := svc.Resolve(context.Background(), "msg-1", store.ActionEvent)
	if !errors.Is(err, ErrInFlight) {
		t.Fatalf("err = %v, want ErrInFlight", err)
	}
}

func TestResolveServiceUnavailablePreservesCache(t *testing.T) {
	svc, cache := newResolverFixture(&fakeGoogle{available: false}, &fakeNotion{})
	cache.SaveAnalysis("msg-1", pendingAnalysis())

	_, err := svc.Resolve(context.Background(), "msg-1", store.ActionEvent)
	if !errors.Is(err, googlecal.ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}

	if _, ok := cache.GetAnalysis("msg-1"); !ok {
		t.Error("analysis must survive a service-unavailable failure")
	}
	if cache.claims["msg-1"] {
		t.Error("claim should be released so the user can retry")
	}
	if _, ok := cache.GetRecord("msg-1"); ok {
		t.Error("no record should be written for a failed action")
	}
}

func TestResolveNotionFailurePreservesCache(t *testing.T) {
	notionFake := &fakeNotion{hasCalendarDB: true, err: errors.New("api down")}
	svc, cache := newResolverFixture(&fakeGoogle{available: true}, notionFake)
	cache.SaveAnalysis("msg-1", pendingAnalysis())

	if _, err := svc.Resolve(context.Background(), "msg-1", store.ActionNotion); err == nil {
		t.Fatal("expected notion failure to surface")
	}
	if _, ok := cache.GetAnalysis("msg-1"); !ok {
		t.Error("analysis must survive a notion failure")
	}
}

func TestResolveMirrorFailureIsOnlyAWarning(t *testing.T) {
	notionFake := &fakeNotion{hasCalendarDB: true, err: errors.New("api down")}
	svc, cache := newResolverFixture(&fakeGoogle{available: true, eventLink: "link"}, notionFake)
	cache.SaveAnalysis("msg-1", pendingAnalysis())

	outcome, err := svc.Resolve(context.Background(), "msg-1", store.ActionEvent)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if outcome.Warning == "" {
		t.Error("expected a warning about the failed mirror")
	}
	if _, ok := cache.GetRecord("msg-1"); !ok {
		t.Error("the google action itself succeeded, so a record is due")
	}
}

func TestRemindAt(t *testing.T) {
	svc := NewResolverService(newFakeCache(), &fakeGoogle{}, &fakeNotion{}, nopLogger{}).(*resolverService)

	tests := []struct {
		name     string
		analysis *store.Analysis
		expect   string
	}{
		{"disabled", &store.Analysis{StartDate: "2025-06-11"}, ""},
		{"exact mode", &store.Analysis{
			Reminder: store.Reminder{Enabled: true, Mode: store.ReminderModeExact, ExactTime: "2025-06-11 13:00"},
		}, "2025-06-11 13:00"},
		{"before mode subtracts minutes", &store.Analysis{
			StartDate: "2025-06-11", StartTime: "14:00",
			Reminder: store.Reminder{Enabled: true, Mode: store.ReminderModeBefore, BeforeMinutes: 30},
		}, "2025-06-11 13:30"},
		{"before mode without start time assumes morning", &store.Analysis{
			StartDate: "2025-06-11",
			Reminder:  store.Reminder{Enabled: true, Mode: store.ReminderModeBefore, BeforeMinutes: 60},
		}, "2025-06-11 08:00"},
		{"unknown mode", &store.Analysis{
			StartDate: "2025-06-11",
			Reminder:  store.Reminder{Enabled: true, Mode: "sometime"},
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := svc.remindAt(tt.analysis); got != tt.expect {
				t.Errorf("remindAt = %q, want %q", got, tt.expect)
			}
		})
	}
}
