package dashboard

import (
	"fmt"
	"time"
)

// DeviceStatus is the connectivity tier derived from last-seen age.
type DeviceStatus string

const (
	StatusOnline  DeviceStatus = "online"
	StatusWarning DeviceStatus = "warning"
	StatusOffline DeviceStatus = "offline"
)

const (
	onlineWindow  = 5 * time.Minute
	warningWindow = 60 * time.Minute
)

// ClassifyDeviceStatus grades lastSeen relative to now: under 5 minutes is
// online, under 60 minutes is warning, anything older or absent is offline.
func ClassifyDeviceStatus(lastSeen *time.Time, now time.Time) DeviceStatus {
	if lastSeen == nil || lastSeen.IsZero() {
		return StatusOffline
	}
	age := now.Sub(*lastSeen)
	switch {
	case age < onlineWindow:
		return StatusOnline
	case age < warningWindow:
		return StatusWarning
	default:
		return StatusOffline
	}
}

// Color is the marker color used by the map and status badges.
func (s DeviceStatus) Color() string {
	switch s {
	case StatusOnline:
		return "#4caf50"
	case StatusWarning:
		return "#ff9800"
	default:
		return "#f44336"
	}
}

// Label is the badge text.
func (s DeviceStatus) Label() string {
	switch s {
	case StatusOnline:
		return "Online"
	case StatusWarning:
		return "Warning"
	default:
		return "Offline"
	}
}

// LastSeenText renders "minutes ago" style text for a badge tooltip.
func LastSeenText(lastSeen *time.Time, now time.Time) string {
	if lastSeen == nil || lastSeen.IsZero() {
		return "never"
	}
	age := now.Sub(*lastSeen)
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age/time.Minute))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age/time.Hour))
	default:
		return fmt.Sprintf("%dd ago", int(age/(24*time.Hour)))
	}
}
