package dto

// StudentRequest defines the payload for creating or replacing a student.
type StudentRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Program   string `json:"program" validate:"required"`
}
