package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"cyclone-bot/pkg/clock"
	"cyclone-bot/pkg/events"
	"cyclone-bot/pkg/notion"
)

func TestSweepDeliversAndMarks(t *testing.T) {
	querier := &fakeQuerier{reminders: []notion.ReminderItem{
		{PageID: "p1", Title: "牙醫預約", Kind: "活動", Start: taipeiTime(t, "2025-06-11 14:00"), URL: "https://www.notion.so/p1"},
		{PageID: "p2", Title: "繳電費", Kind: "任務"},
	}}
	publisher := &fakePublisher{}
	svc := NewReminderService(querier, publisher, clock.Fixed{Time: taipeiTime(t, "2025-06-11 13:00")}, "notify-chan", nopLogger{})

	if err := svc.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	if len(querier.marked) != 2 {
		t.Fatalf("marked %v", querier.marked)
	}
	if len(publisher.published) != 2 {
		t.Fatalf("published %d reminders", len(publisher.published))
	}
	first, _ := publisher.published[0].Payload()["content"].(string)
	if !strings.Contains(first, "活動提醒") || !strings.Contains(first, "牙醫預約") {
		t.Errorf("content = %q", first)
	}
	if !strings.Contains(first, "2025/06/11 14:00") {
		t.Errorf("expected start time in content: %q", first)
	}
	second, _ := publisher.published[1].Payload()["content"].(string)
	if !strings.Contains(second, "任務提醒") {
		t.Errorf("content = %q", second)
	}
	if publisher.published[0].EventType() != events.TypeReminderDue {
		t.Errorf("event type = %q", publisher.published[0].EventType())
	}
}

func TestSweepSkipsDeliveryWhenMarkFails(t *testing.T) {
	querier := &fakeQuerier{
		reminders: []notion.ReminderItem{{PageID: "p1", Title: "t"}},
		markErr:   errors.New("notion down"),
	}
	publisher := &fakePublisher{}
	svc := NewReminderService(querier, publisher, clock.Fixed{Time: taipeiTime(t, "2025-06-11 13:00")}, "notify-chan", nopLogger{})

	if err := svc.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(publisher.published) != 0 {
		t.Error("a reminder that could not be marked must not be delivered")
	}
}

func TestSweepWithoutNotifyChannel(t *testing.T) {
	querier := &fakeQuerier{reminders: []notion.ReminderItem{{PageID: "p1"}}}
	svc := NewReminderService(querier, &fakePublisher{}, clock.Fixed{Time: taipeiTime(t, "2025-06-11 13:00")}, "", nopLogger{})

	if err := svc.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(querier.marked) != 0 {
		t.Error("nothing should be marked without a notify channel")
	}
}

func TestSweepQueryError(t *testing.T) {
	querier := &fakeQuerier{err: errors.New("notion down")}
	svc := NewReminderService(querier, &fakePublisher{}, clock.Fixed{Time: taipeiTime(t, "2025-06-11 13:00")}, "c", nopLogger{})

	if err := svc.Sweep(context.Background()); err == nil {
		t.Fatal("expected query error to surface")
	}
}
