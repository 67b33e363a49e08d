package dashboard

import (
	"testing"
	"time"
)

func TestClassifyDeviceStatusBoundaries(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	at := func(ago time.Duration) *time.Time {
		ts := now.Add(-ago)
		return &ts
	}
	cases := []struct {
		name     string
		lastSeen *time.Time
		want     DeviceStatus
	}{
		{name: "just now", lastSeen: at(0), want: StatusOnline},
		{name: "under five minutes", lastSeen: at(4*time.Minute + 59*time.Second), want: StatusOnline},
		{name: "five minutes", lastSeen: at(5 * time.Minute), want: StatusWarning},
		{name: "under an hour", lastSeen: at(59 * time.Minute), want: StatusWarning},
		{name: "sixty minutes", lastSeen: at(60 * time.Minute), want: StatusOffline},
		{name: "days", lastSeen: at(72 * time.Hour), want: StatusOffline},
		{name: "never", lastSeen: nil, want: StatusOffline},
		{name: "zero", lastSeen: &time.Time{}, want: StatusOffline},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyDeviceStatus(tc.lastSeen, now); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestDeviceStatusPresentation(t *testing.T) {
	if StatusOnline.Color() != "#4caf50" || StatusOnline.Label() != "Online" {
		t.Fatalf("unexpected online presentation")
	}
	if DeviceStatus("bogus").Label() != "Offline" {
		t.Fatalf("unknown status should render offline")
	}
}

func TestLastSeenText(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cases := map[time.Duration]string{
		10 * time.Second: "just now",
		12 * time.Minute: "12m ago",
		3 * time.Hour:    "3h ago",
		50 * time.Hour:   "2d ago",
	}
	for ago, want := range cases {
		ts := now.Add(-ago)
		if got := LastSeenText(&ts, now); got != want {
			t.Fatalf("%s: expected %q, got %q", ago, want, got)
		}
	}
	if got := LastSeenText(nil, now); got != "never" {
		t.Fatalf("expected never, got %q", got)
	}
}
