package clients

import (
	"context"

	"github.com/noah-isme/campus-records-api/internal/models"
)

// CourseClient reads courses from the course service.
type CourseClient struct {
	rc resourceClient
}

// NewCourseClient constructs a CourseClient.
func NewCourseClient(opts Options) *CourseClient {
	return &CourseClient{rc: newResourceClient(opts, "courses", "Course")}
}

// FetchByKey returns the course with the given key. A missing course yields
// "CourseId not found: <key>".
func (c *CourseClient) FetchByKey(ctx context.Context, courseID string) (*models.Course, error) {
	var course models.Course
	if err := c.rc.fetch(ctx, courseID, &course); err != nil {
		return nil, err
	}
	return &course, nil
}
