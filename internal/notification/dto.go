// AngelaMos | 2026
// dto.go

package notification

import (
	"time"

	"github.com/dustin/go-humanize"
)

type NotificationResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Type      *string   `json:"type"`
	Read      bool      `json:"read"`
	Time      string    `json:"time"`
	CreatedAt time.Time `json:"created_at"`
}

type ListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	Unread        int                    `json:"unread"`
}

type BulkResponse struct {
	Affected int64 `json:"affected"`
}

// ToNotificationResponse renders n with its age relative to now, e.g.
// "3 minutes ago".
func ToNotificationResponse(n Notification, now time.Time) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Title:     n.Title,
		Body:      n.Body,
		Type:      n.Type,
		Read:      n.IsRead(),
		Time:      humanize.RelTime(n.CreatedAt, now, "ago", "from now"),
		CreatedAt: n.CreatedAt,
	}
}

func ToListResponse(items []Notification, now time.Time) ListResponse {
	resp := ListResponse{
		Notifications: make([]NotificationResponse, 0, len(items)),
	}
	for _, n := range items {
		if !n.IsRead() {
			resp.Unread++
		}
		resp.Notifications = append(resp.Notifications, ToNotificationResponse(n, now))
	}
	return resp
}
