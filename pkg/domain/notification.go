package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// NotificationType groups notifications for display.
type NotificationType string

const (
	NotificationAppointment NotificationType = "appointment"
	NotificationMood        NotificationType = "mood"
	NotificationComment     NotificationType = "comment"
	NotificationDefault     NotificationType = "default"
)

// ParseNotificationType maps a backend type tag (often a class name such as
// "App\\Notifications\\AppointmentReminder") onto a NotificationType.
// Unknown tags fall back to NotificationDefault.
func ParseNotificationType(raw string) NotificationType {
	s := strings.ToLower(raw)
	switch {
	case strings.Contains(s, "appointment"):
		return NotificationAppointment
	case strings.Contains(s, "mood"):
		return NotificationMood
	case strings.Contains(s, "comment"):
		return NotificationComment
	default:
		return NotificationDefault
	}
}

// Notification represents a single notification event. ReadAt is nil while
// the notification is unread.
type Notification struct {
	ID        ID               `json:"id"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	ReadAt    *time.Time       `json:"read_at"`
	CreatedAt time.Time        `json:"created_at"`
}

// Unread reports whether the notification has not been read.
func (n Notification) Unread() bool {
	return n.ReadAt == nil
}

type wireNotification struct {
	ID        ID              `json:"id"`
	Type      string          `json:"type"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	ReadAt    *time.Time      `json:"read_at"`
	CreatedAt time.Time       `json:"created_at"`
}

// UnmarshalJSON accepts the message either as a flat field or nested in a
// data payload ({"data": {"message": ...}}).
func (n *Notification) UnmarshalJSON(data []byte) error {
	var w wireNotification
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	msg := w.Message
	if msg == "" && len(w.Data) > 0 && w.Data[0] == '{' {
		var payload struct {
			Message string `json:"message"`
			Title   string `json:"title"`
			Type    string `json:"type"`
		}
		if err := json.Unmarshal(w.Data, &payload); err == nil {
			msg = firstNonEmpty(payload.Message, payload.Title)
			if w.Type == "" {
				w.Type = payload.Type
			}
		}
	}
	*n = Notification{
		ID:        w.ID,
		Type:      ParseNotificationType(w.Type),
		Message:   msg,
		ReadAt:    w.ReadAt,
		CreatedAt: w.CreatedAt,
	}
	return nil
}

// CountUnread returns the number of unread notifications in ns.
func CountUnread(ns []Notification) int {
	n := 0
	for _, x := range ns {
		if x.Unread() {
			n++
		}
	}
	return n
}
