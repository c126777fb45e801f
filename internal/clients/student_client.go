package clients

import (
	"context"

	"github.com/noah-isme/campus-records-api/internal/models"
)

// StudentClient reads students from the student service.
type StudentClient struct {
	rc resourceClient
}

// NewStudentClient constructs a StudentClient.
func NewStudentClient(opts Options) *StudentClient {
	return &StudentClient{rc: newResourceClient(opts, "students", "Student")}
}

// FetchByKey returns the student with the given key. A missing student yields
// "StudentId not found: <key>".
func (c *StudentClient) FetchByKey(ctx context.Context, studentID string) (*models.Student, error) {
	var student models.Student
	if err := c.rc.fetch(ctx, studentID, &student); err != nil {
		return nil, err
	}
	return &student, nil
}
