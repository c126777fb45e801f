package models

// Student represents a learner owned by the student service.
type Student struct {
	ID        int64  `db:"id" json:"-"`
	StudentID string `db:"student_id" json:"studentId"`
	FirstName string `db:"first_name" json:"firstName"`
	LastName  string `db:"last_name" json:"lastName"`
	Program   string `db:"program" json:"program"`
}
