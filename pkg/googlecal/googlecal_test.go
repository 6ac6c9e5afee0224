package googlecal

import (
	"context"
	"errors"
	"testing"
	"time"

	"cyclone-bot/pkg/store"
)

func newTestService(t *testing.T) *service {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Taipei")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return &service{calendarID: "primary", loc: loc}
}

func TestServiceUnavailableWithoutCredentials(t *testing.T) {
	svc := NewService(Config{ClientID: "id", ClientSecret: "secret"})
	if svc.Available() {
		t.Fatal("service without refresh token should not be available")
	}
	if _, err := svc.CreateEvent(context.Background(), &store.Analysis{Title: "開會"}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("CreateEvent error = %v, want ErrNotConfigured", err)
	}
	if _, err := svc.CreateTask(context.Background(), &store.Analysis{Title: "繳費"}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("CreateTask error = %v, want ErrNotConfigured", err)
	}
}

func TestEventWindow(t *testing.T) {
	svc := newTestService(t)

	t.Run("all day uses exclusive end date", func(t *testing.T) {
		start, end, err := svc.eventWindow(&store.Analysis{Title: "展覽", StartDate: "2025-06-10"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if start.Date != "2025-06-10" || start.DateTime != "" {
			t.Errorf("start = %+v", start)
		}
		if end.Date != "2025-06-11" {
			t.Errorf("end date = %q, want next day", end.Date)
		}
	})

	t.Run("multi day all day", func(t *testing.T) {
		_, end, err := svc.eventWindow(&store.Analysis{StartDate: "2025-06-10", EndDate: "2025-06-12"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if end.Date != "2025-06-13" {
			t.Errorf("end date = %q", end.Date)
		}
	})

	t.Run("timed event defaults to one hour", func(t *testing.T) {
		start, end, err := svc.eventWindow(&store.Analysis{StartDate: "2025-06-11", StartTime: "14:00"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if start.DateTime != "2025-06-11T14:00:00+08:00" {
			t.Errorf("start = %q", start.DateTime)
		}
		if end.DateTime != "2025-06-11T15:00:00+08:00" {
			t.Errorf("end = %q", end.DateTime)
		}
		if start.TimeZone != "Asia/Taipei" {
			t.Errorf("timezone = %q", start.TimeZone)
		}
	})

	t.Run("explicit end time wins", func(t *testing.T) {
		_, end, err := svc.eventWindow(&store.Analysis{StartDate: "2025-06-11", StartTime: "14:00", EndTime: "16:30"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if end.DateTime != "2025-06-11T16:30:00+08:00" {
			t.Errorf("end = %q", end.DateTime)
		}
	})

	t.Run("end before start falls back to default duration", func(t *testing.T) {
		_, end, err := svc.eventWindow(&store.Analysis{StartDate: "2025-06-11", StartTime: "14:00", EndTime: "09:00"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if end.DateTime != "2025-06-11T15:00:00+08:00" {
			t.Errorf("end = %q", end.DateTime)
		}
	})

	t.Run("deadline backfills the date", func(t *testing.T) {
		start, _, err := svc.eventWindow(&store.Analysis{Deadline: "2025-07-01"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if start.Date != "2025-07-01" {
			t.Errorf("start = %+v", start)
		}
	})

	t.Run("missing date errors", func(t *testing.T) {
		if _, _, err := svc.eventWindow(&store.Analysis{Title: "沒日期"}); err == nil {
			t.Fatal("expected error for analysis without date")
		}
	})
}
