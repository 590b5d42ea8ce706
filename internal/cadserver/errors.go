package cadserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/r9s-ai/cadscribe/internal/generator"
	"github.com/r9s-ai/cadscribe/internal/pipeline"
	"github.com/r9s-ai/cadscribe/internal/shapes"
	"github.com/r9s-ai/cadscribe/internal/upload"
)

const detailShapeNotRecognized = "Shape not recognized in the generated output."

// statusFor maps a service error to its HTTP status and client detail.
func statusFor(err error) (int, string) {
	var ie *upload.IntegrationError
	switch {
	case errors.Is(err, shapes.ErrShapeNotRecognized):
		return http.StatusInternalServerError, detailShapeNotRecognized
	case errors.Is(err, pipeline.ErrInvalidSize):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, generator.ErrGenerationFailed):
		return http.StatusBadGateway, err.Error()
	case errors.As(err, &ie):
		if ie.Body != "" {
			return http.StatusBadGateway, ie.Body
		}
		return http.StatusBadGateway, ie.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func writeError(c *gin.Context, err error) {
	status, detail := statusFor(err)
	c.Set("cad.error", err.Error())
	writeDetail(c, status, detail)
}

func writeDetail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}
