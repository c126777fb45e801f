package dto

import "github.com/noah-isme/campus-records-api/internal/models"

// EnrollmentRequest is the payload for creating or replacing an enrollment.
// Snapshot fields are never accepted from callers; they are always fetched from
// the student and course services.
type EnrollmentRequest struct {
	EnrollmentYear int             `json:"enrollmentYear" validate:"required,gte=1900,lte=9999"`
	Semester       models.Semester `json:"semester" validate:"required,oneof=SPRING FALL SUMMER"`
	StudentID      string          `json:"studentId" validate:"required"`
	CourseID       string          `json:"courseId" validate:"required"`
}
