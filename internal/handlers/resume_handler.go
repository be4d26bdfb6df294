package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xpanvictor/intervox/internal/domains/resume"
	"github.com/xpanvictor/intervox/pkg/Logger"
)

const maxResumeBytes = 1 << 20

// ResumeHandler turns uploaded resumes into interview background
type ResumeHandler struct {
	logger *Logger.Logger
}

func NewResumeHandler(logger *Logger.Logger) *ResumeHandler {
	return &ResumeHandler{logger: Logger.OrNop(logger)}
}

// ParseResume extracts skills and projects from a text resume
// @Summary Parse a resume
// @Description Accepts a multipart "file" field or a plain text body. The result can be sent as resume_data when starting an interview.
// @Tags Resume
// @Security BearerAuth
// @Accept multipart/form-data,plain
// @Produce json
// @Param file formData file false "Resume as .txt or .md"
// @Success 200 {object} interview.ResumeData "Parsed resume"
// @Failure 400 {object} ErrorResponse "Empty or unreadable resume"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 415 {object} ErrorResponse "Unsupported format"
// @Router /resume/parse [post]
func (h *ResumeHandler) ParseResume(c *gin.Context) {
	text, err := h.readResume(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	data, err := resume.Parse(text)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (h *ResumeHandler) readResume(c *gin.Context) (string, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxResumeBytes)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			return "", errMissingFile
		}
		if err := resume.CheckFilename(fh.Filename); err != nil {
			return "", err
		}
		f, err := fh.Open()
		if err != nil {
			return "", err
		}
		defer f.Close()
		b, err := io.ReadAll(f)
		return string(b), err
	}
	b, err := io.ReadAll(c.Request.Body)
	return string(b), err
}

var errMissingFile = errors.New("missing file field")

func (h *ResumeHandler) respondError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, resume.ErrUnsupported):
		c.JSON(http.StatusUnsupportedMediaType, ErrorResponse{Error: "Unsupported format", Details: err.Error()})
	case errors.Is(err, resume.ErrUnreadable), errors.Is(err, errMissingFile):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid resume", Details: err.Error()})
	case errors.As(err, &tooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "Resume too large"})
	default:
		h.logger.Errorf("resume parse error: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Resume parsing failed"})
	}
}
