package models

// Course represents a course offering owned by the course service.
type Course struct {
	ID           int64   `db:"id" json:"-"`
	CourseID     string  `db:"course_id" json:"courseId"`
	CourseNumber string  `db:"course_number" json:"courseNumber"`
	CourseName   string  `db:"course_name" json:"courseName"`
	NumHours     int     `db:"num_hours" json:"numHours"`
	NumCredits   float64 `db:"num_credits" json:"numCredits"`
	Department   string  `db:"department" json:"department"`
}
