package dto

// CourseRequest defines the payload for creating or replacing a course.
type CourseRequest struct {
	CourseNumber string  `json:"courseNumber" validate:"required"`
	CourseName   string  `json:"courseName" validate:"required"`
	NumHours     int     `json:"numHours" validate:"gte=0"`
	NumCredits   float64 `json:"numCredits" validate:"gte=0"`
	Department   string  `json:"department" validate:"required"`
}
