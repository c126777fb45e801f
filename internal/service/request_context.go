package service

import (
	"github.com/noah-isme/campus-records-api/internal/dto"
	"github.com/noah-isme/campus-records-api/internal/models"
)

// enrollmentContext accumulates what the create and update pipelines learn.
// Every stage returns a new value; nothing is mutated in place, so the fetch
// goroutines never share a value.
type enrollmentContext struct {
	enrollmentID string
	request      dto.EnrollmentRequest
	student      *models.Student
	course       *models.Course
}

func newEnrollmentContext(enrollmentID string, req dto.EnrollmentRequest) enrollmentContext {
	return enrollmentContext{enrollmentID: enrollmentID, request: req}
}

func (c enrollmentContext) withStudent(student *models.Student) enrollmentContext {
	c.student = student
	return c
}

func (c enrollmentContext) withCourse(course *models.Course) enrollmentContext {
	c.course = course
	return c
}

func (c enrollmentContext) ready() bool {
	return c.student != nil && c.course != nil
}

// build merges the request with the fetched snapshots. Keys come from the
// request, names from the downstream records.
func (c enrollmentContext) build() models.Enrollment {
	return models.Enrollment{
		EnrollmentID:     c.enrollmentID,
		EnrollmentYear:   c.request.EnrollmentYear,
		Semester:         c.request.Semester,
		StudentID:        c.request.StudentID,
		StudentFirstName: c.student.FirstName,
		StudentLastName:  c.student.LastName,
		CourseID:         c.request.CourseID,
		CourseName:       c.course.CourseName,
		CourseNumber:     c.course.CourseNumber,
	}
}
