package models

// Semester is the academic period an enrollment belongs to.
type Semester string

// Supported semesters.
const (
	SemesterSpring Semester = "SPRING"
	SemesterFall   Semester = "FALL"
	SemesterSummer Semester = "SUMMER"
)

// Enrollment registers a student in a course. Student and course fields are
// snapshots copied from the owning services when the record was written and are
// never refreshed afterwards.
type Enrollment struct {
	ID               int64    `db:"id" json:"-"`
	EnrollmentID     string   `db:"enrollment_id" json:"enrollmentId"`
	EnrollmentYear   int      `db:"enrollment_year" json:"enrollmentYear"`
	Semester         Semester `db:"semester" json:"semester"`
	StudentID        string   `db:"student_id" json:"studentId"`
	StudentFirstName string   `db:"student_first_name" json:"studentFirstName"`
	StudentLastName  string   `db:"student_last_name" json:"studentLastName"`
	CourseID         string   `db:"course_id" json:"courseId"`
	CourseName       string   `db:"course_name" json:"courseName"`
	CourseNumber     string   `db:"course_number" json:"courseNumber"`
}

// EnrollmentFilter narrows enrollment listings. At most one field is set; the
// zero value lists everything.
type EnrollmentFilter struct {
	StudentID      string
	CourseID       string
	EnrollmentYear *int
}
