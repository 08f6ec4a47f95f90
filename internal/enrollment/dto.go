// AngelaMos | 2026
// dto.go

package enrollment

import (
	"time"
)

type EnrollInComboRequest struct {
	UserID  string `json:"user_id"  validate:"required,uuid"`
	ComboID string `json:"combo_id" validate:"required,uuid"`
}

type ExtendComboAccessRequest struct {
	UserID   string `json:"user_id"  validate:"required,uuid"`
	ComboID  string `json:"combo_id" validate:"required,uuid"`
	Duration string `json:"duration" validate:"required,oneof=1-month 2-months 3-months lifetime"`
}

type ExtendAccessRequest struct {
	Duration string `json:"duration" validate:"required,oneof=1-month 2-months 3-months lifetime"`
}

type UpdateProgressRequest struct {
	Progress int `json:"progress" validate:"gte=0,lte=100"`
}

type EnrollmentResponse struct {
	ID              string     `json:"id"`
	StudentID       string     `json:"student_id"`
	CourseID        string     `json:"course_id"`
	Progress        int        `json:"progress"`
	Completed       bool       `json:"completed"`
	ComboID         *string    `json:"combo_id,omitempty"`
	OrderID         *string    `json:"order_id,omitempty"`
	AccessDuration  string     `json:"access_duration,omitempty"`
	AccessStartDate *time.Time `json:"access_start_date,omitempty"`
	AccessEndDate   *time.Time `json:"access_end_date"`
	CreatedAt       time.Time  `json:"created_at"`
}

type ComboEnrollmentResponse struct {
	Enrollments   []EnrollmentResponse `json:"enrollments"`
	AccessEndDate *time.Time           `json:"access_end_date"`
}

type AccessWindowResponse struct {
	AccessEndDate *time.Time `json:"access_end_date"`
}

func ToEnrollmentResponse(e *Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:              e.ID,
		StudentID:       e.StudentID,
		CourseID:        e.CourseID,
		Progress:        e.Progress,
		Completed:       e.Completed,
		ComboID:         e.ComboID,
		OrderID:         e.OrderID,
		AccessDuration:  e.AccessDuration,
		AccessStartDate: e.AccessStartDate,
		AccessEndDate:   e.AccessEndDate,
		CreatedAt:       e.CreatedAt,
	}
}

func ToEnrollmentResponseList(list []Enrollment) []EnrollmentResponse {
	out := make([]EnrollmentResponse, 0, len(list))
	for i := range list {
		out = append(out, ToEnrollmentResponse(&list[i]))
	}
	return out
}
