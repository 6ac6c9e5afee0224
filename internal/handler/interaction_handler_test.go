package handler

import (
	"testing"

	"cyclone-bot/pkg/store"
)

func TestParseCustomID(t *testing.T) {
	tests := []struct {
		name      string
		customID  string
		action    string
		messageID string
		ok        bool
	}{
		{"event button", store.ActionEvent + ":111222333", store.ActionEvent, "111222333", true},
		{"cancel button", store.ActionCancel + ":111222333", store.ActionCancel, "111222333", true},
		{"message id containing a colon", store.ActionTask + ":a:b", store.ActionTask, "a:b", true},
		{"unknown action", "open_ticket:111222333", "", "", false},
		{"missing message id", store.ActionEvent, "", "", false},
		{"empty message id", store.ActionEvent + ":", "", "", false},
		{"empty id", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, messageID, ok := parseCustomID(tt.customID)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if action != tt.action || messageID != tt.messageID {
				t.Errorf("parsed (%q, %q), want (%q, %q)", action, messageID, tt.action, tt.messageID)
			}
		})
	}
}
