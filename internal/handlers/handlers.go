package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/recognition-mock/internal/intake"
	"github.com/example/recognition-mock/internal/passages"
	"github.com/example/recognition-mock/internal/recognition"
	"github.com/example/recognition-mock/internal/reject"
)

// MaxMultipartMemory is the in-memory part of a multipart form; larger files spill to disk.
const MaxMultipartMemory = 8 << 20

// Checker runs the recognition flow for one upload form.
type Checker interface {
	Check(ctx context.Context, form *multipart.Form) (recognition.Result, error)
}

// Picker returns one passage per call.
type Picker interface {
	Pick(ctx context.Context) passages.Passage
}

// CheckResponse is the /check success body.
type CheckResponse struct {
	Recognized bool   `json:"recognized"`
	Message    string `json:"message"`
}

// CheckErrorResponse is the /check failure body.
type CheckErrorResponse struct {
	Error      string `json:"error"`
	Recognized bool   `json:"recognized"`
}

// SentenceResponse is the /sentence body.
type SentenceResponse struct {
	Text        string `json:"text"`
	Translation string `json:"translation"`
}

// RegisterRoutes wires the HTTP handlers to the Gin router. guards run before
// /check and /sentence but not before /health. Guard rejections on /check use
// the CheckErrorResponse shape.
func RegisterRoutes(router *gin.Engine, checker Checker, picker Picker, guards ...gin.HandlerFunc) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	check := router.Group("/check", reject.WithBody(checkRejection))
	check.Use(guards...)
	check.POST("", checkHandler(checker))

	router.Group("/", guards...).GET("/sentence", sentenceHandler(picker))
}

func checkRejection(message string) any {
	return CheckErrorResponse{Error: message, Recognized: false}
}

func checkHandler(checker Checker) gin.HandlerFunc {
	return func(c *gin.Context) {
		form, err := c.MultipartForm()
		if err != nil {
			var tooLarge *http.MaxBytesError
			switch {
			case errors.As(err, &tooLarge):
				checkError(c, http.StatusRequestEntityTooLarge, "image file too large")
				return
			case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
				// No multipart body means no image; intake reports it.
				form = nil
			default:
				checkError(c, http.StatusBadRequest, "malformed multipart body")
				return
			}
		}

		result, err := checker.Check(c.Request.Context(), form)
		switch {
		case err == nil:
			c.JSON(http.StatusOK, CheckResponse{Recognized: result.Recognized, Message: result.Message})
		case errors.Is(err, intake.ErrMissingInput):
			checkError(c, http.StatusBadRequest, intake.ErrMissingInput.Error())
		case errors.Is(err, intake.ErrMultipleFiles):
			checkError(c, http.StatusBadRequest, intake.ErrMultipleFiles.Error())
		case errors.Is(err, intake.ErrStorageFailure):
			checkError(c, http.StatusInternalServerError, intake.ErrStorageFailure.Error())
		default:
			checkError(c, http.StatusInternalServerError, "recognition unavailable")
		}
	}
}

func checkError(c *gin.Context, status int, message string) {
	c.JSON(status, CheckErrorResponse{Error: message, Recognized: false})
}

func sentenceHandler(picker Picker) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := picker.Pick(c.Request.Context())
		c.JSON(http.StatusOK, SentenceResponse{Text: p.Text, Translation: p.Translation})
	}
}
