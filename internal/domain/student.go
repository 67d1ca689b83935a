package domain

import "time"

// Student is a reporter of maintenance tasks.
type Student struct {
	ID                string    `json:"-"`
	Name              string    `json:"name"`
	RegisterNumber    string    `json:"registerNumber"`
	NotificationToken string    `json:"fcmToken,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}
