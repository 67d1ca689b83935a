package dto

import (
	"time"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

// CreateStaffRequest provisions a staff member.
type CreateStaffRequest struct {
	StaffID  string `json:"staff_id"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// SetActiveRequest toggles soft-deactivation.
type SetActiveRequest struct {
	Active bool `json:"active"`
}

// StaffLoginRequest is the login payload.
type StaffLoginRequest struct {
	StaffID  string `json:"staff_id"`
	Password string `json:"password"`
}

// StaffLoginResponse carries the session token.
type StaffLoginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	Staff     StaffResponse `json:"staff"`
}

// UpdateTokenRequest refreshes a push token for a student or staff member.
type UpdateTokenRequest struct {
	UserType string `json:"user_type"`
	UserID   string `json:"user_id"`
	Token    string `json:"token"`
}

// StaffResponse is the public staff view.
type StaffResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Active      bool       `json:"active"`
	HasToken    bool       `json:"has_token"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// NewStaffResponse maps a domain staff member; the password hash and push
// token never leave the service.
func NewStaffResponse(staff *domain.Staff) StaffResponse {
	return StaffResponse{
		ID:          staff.ID,
		Name:        staff.Name,
		Active:      staff.Active,
		HasToken:    staff.HasNotificationToken(),
		CreatedAt:   staff.CreatedAt,
		LastLoginAt: staff.LastLoginAt,
	}
}

// RegisterStudentRequest upserts a reporter profile.
type RegisterStudentRequest struct {
	StudentID      string `json:"student_id"`
	Name           string `json:"name"`
	RegisterNumber string `json:"register_number"`
}

// StudentResponse is the public reporter view.
type StudentResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	RegisterNumber string `json:"register_number"`
	HasToken       bool   `json:"has_token"`
}

// NewStudentResponse maps a domain student.
func NewStudentResponse(student *domain.Student) StudentResponse {
	return StudentResponse{
		ID:             student.ID,
		Name:           student.Name,
		RegisterNumber: student.RegisterNumber,
		HasToken:       student.NotificationToken != "",
	}
}
