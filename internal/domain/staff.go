package domain

import "time"

// Staff models an assignable maintenance worker. Staff are provisioned by an
// administrator and soft-deactivated, never deleted.
type Staff struct {
	ID                string     `json:"-"`
	Name              string     `json:"name"`
	PasswordHash      string     `json:"passwordHash,omitempty"`
	Active            bool       `json:"active"`
	NotificationToken string     `json:"fcmToken,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	LastLoginAt       *time.Time `json:"lastLoginAt,omitempty"`
}

// HasNotificationToken reports whether the staff member can receive push
// notifications.
func (s *Staff) HasNotificationToken() bool {
	return s.NotificationToken != ""
}
