package response

import (
	"encoding/json"
	"iter"
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/campus-records-api/pkg/errors"
)

// JSON sends a success response carrying data as the body.
func JSON(c *gin.Context, status int, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, data)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data)
}

// Error sends an error response converting the error to the common structure.
// The body always carries a "message" field.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	_ = c.Error(err)
	c.Header("Cache-Control", "no-store")
	c.AbortWithStatusJSON(appErr.Status, appErr)
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// StreamErrorTrailer is the HTTP trailer that carries the error message when a
// stream fails after its status line was sent. It is empty on success.
const StreamErrorTrailer = "X-Stream-Error"

// streamBuffer is how many elements Stream reads ahead before committing to 200.
const streamBuffer = 64

// Stream writes seq as a JSON array. The first streamBuffer elements are read
// before anything is sent, so an error among them still produces a regular
// error response. A later error ends the array early, sets StreamErrorTrailer
// and is recorded on the Gin context for the access log; the body stays valid
// JSON either way.
func Stream[T any](c *gin.Context, seq iter.Seq2[T, error]) {
	next, stop := iter.Pull2(seq)
	defer stop()

	buffered := make([]T, 0, streamBuffer)
	done := false
	for !done && len(buffered) < streamBuffer {
		item, err, ok := next()
		switch {
		case err != nil:
			Error(c, err)
			return
		case !ok:
			done = true
		default:
			buffered = append(buffered, item)
		}
	}

	c.Header("Cache-Control", "no-store")
	c.Header("Content-Type", "application/json; charset=utf-8")
	c.Header("Trailer", StreamErrorTrailer)
	c.Status(http.StatusOK)

	if _, err := c.Writer.WriteString("["); err != nil {
		return
	}

	enc := json.NewEncoder(c.Writer)
	written := 0
	fail := func(err error) {
		_ = c.Error(err)
		c.Writer.Header().Set(StreamErrorTrailer, appErrors.FromError(err).Message)
	}
	// write reports whether streaming should go on.
	write := func(item T) bool {
		if written > 0 {
			if _, err := c.Writer.WriteString(","); err != nil {
				return false
			}
		}
		if err := enc.Encode(item); err != nil {
			fail(err)
			return false
		}
		written++
		return true
	}

	ok := true
	for _, item := range buffered {
		if ok = write(item); !ok {
			break
		}
	}
	for ok && !done {
		item, err, more := next()
		switch {
		case err != nil:
			fail(err)
			ok = false
		case !more:
			done = true
		default:
			if ok = write(item); ok {
				c.Writer.Flush()
			}
		}
	}
	_, _ = c.Writer.WriteString("]")
}
