package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xpanvictor/intervox/internal/domains/interview"
	"github.com/xpanvictor/intervox/pkg/Logger"
	"github.com/xpanvictor/intervox/pkg/sandbox"
)

// InterviewHandler handles interview-related HTTP requests
type InterviewHandler struct {
	interviews *interview.Service
	logger     *Logger.Logger
}

// NewInterviewHandler creates a new interview handler
func NewInterviewHandler(interviews *interview.Service, logger *Logger.Logger) *InterviewHandler {
	return &InterviewHandler{
		interviews: interviews,
		logger:     Logger.OrNop(logger),
	}
}

// StartInterview handles interview creation
// @Summary Start an interview
// @Description Create an interview and return its greeting question. Connect to the websocket with the returned session id to run it by voice.
// @Tags Interviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body interview.StartRequest true "Interview settings"
// @Success 201 {object} StartInterviewResponse "Interview started"
// @Failure 400 {object} ErrorResponse "Invalid request data"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /interview/start [post]
func (h *InterviewHandler) StartInterview(c *gin.Context) {
	userInfo, ok := ExtractUserInfo(c)
	if !ok {
		return
	}

	var req interview.StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	req.UserID = userInfo.UserID

	iv, err := h.interviews.Start(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, "start interview")
		return
	}

	c.JSON(http.StatusCreated, StartInterviewResponse{
		SessionID:     iv.ID,
		FirstQuestion: iv.Current(),
		Phase:         iv.Phase,
	})
}

// GetInterviewState returns the stored interview
// @Summary Get interview state
// @Description Get the full interview record, including questions and responses so far
// @Tags Interviews
// @Produce json
// @Security BearerAuth
// @Param id path string true "Interview ID"
// @Success 200 {object} InterviewStateResponse "Interview state"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Not your interview"
// @Failure 404 {object} ErrorResponse "Interview not found"
// @Router /interview/state/{id} [get]
func (h *InterviewHandler) GetInterviewState(c *gin.Context) {
	userInfo, ok := ExtractUserInfo(c)
	if !ok {
		return
	}

	iv, err := h.interviews.GetOwned(c.Request.Context(), c.Param("id"), userInfo.UserID)
	if err != nil {
		h.respondError(c, err, "get interview")
		return
	}

	c.JSON(http.StatusOK, InterviewStateResponse{Interview: iv})
}

// SubmitAnswer handles a typed answer
// @Summary Answer the current question
// @Description Analyze a typed answer and return the next question. Answering the wrap up question completes the interview and returns its report.
// @Tags Interviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Interview ID"
// @Param request body AnswerRequest true "Answer text"
// @Success 200 {object} AnswerResponse "Answer processed"
// @Failure 400 {object} ErrorResponse "Invalid request data"
// @Failure 403 {object} ErrorResponse "Not your interview"
// @Failure 404 {object} ErrorResponse "Interview not found"
// @Failure 409 {object} ErrorResponse "Interview has ended"
// @Router /interview/answer/{id} [post]
func (h *InterviewHandler) SubmitAnswer(c *gin.Context) {
	userInfo, ok := ExtractUserInfo(c)
	if !ok {
		return
	}

	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")
	if _, err := h.interviews.GetOwned(ctx, id, userInfo.UserID); err != nil {
		h.respondError(c, err, "answer")
		return
	}

	res, err := h.interviews.ProcessAnswer(ctx, id, req.Answer)
	if err != nil {
		h.respondError(c, err, "answer")
		return
	}

	resp := AnswerResponse{AnswerResult: *res}
	if res.Completed {
		report, err := h.interviews.Finish(ctx, id)
		if err != nil {
			h.respondError(c, err, "finish interview")
			return
		}
		resp.Report = report
	}

	c.JSON(http.StatusOK, resp)
}

// SubmitCode runs candidate code
// @Summary Run code for the current coding question
// @Description Execute the submitted code against the question's test cases, or the ones supplied
// @Tags Interviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Interview ID"
// @Param request body interview.CodeRequest true "Source code"
// @Success 200 {object} CodeResponse "Execution result"
// @Failure 400 {object} ErrorResponse "Invalid request data or no test cases"
// @Failure 403 {object} ErrorResponse "Not your interview"
// @Failure 404 {object} ErrorResponse "Interview not found"
// @Failure 503 {object} ErrorResponse "Code execution unavailable"
// @Router /interview/{id}/code [post]
func (h *InterviewHandler) SubmitCode(c *gin.Context) {
	userInfo, ok := ExtractUserInfo(c)
	if !ok {
		return
	}

	var req interview.CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")
	if _, err := h.interviews.GetOwned(ctx, id, userInfo.UserID); err != nil {
		h.respondError(c, err, "code")
		return
	}

	result, err := h.interviews.SubmitCode(ctx, id, req)
	if err != nil {
		h.respondError(c, err, "code execution")
		return
	}

	c.JSON(http.StatusOK, CodeResponse{Result: result})
}

// GetReport returns the report of a completed interview
// @Summary Get interview report
// @Description Get the feedback report of a completed interview
// @Tags Interviews
// @Produce json
// @Security BearerAuth
// @Param id path string true "Interview ID"
// @Success 200 {object} ReportResponse "Report"
// @Failure 403 {object} ErrorResponse "Not your interview"
// @Failure 404 {object} ErrorResponse "No report for this interview"
// @Router /interview/{id}/report [get]
func (h *InterviewHandler) GetReport(c *gin.Context) {
	userInfo, ok := ExtractUserInfo(c)
	if !ok {
		return
	}

	report, err := h.interviews.Report(c.Request.Context(), c.Param("id"), userInfo.UserID)
	if err != nil {
		h.respondError(c, err, "report")
		return
	}

	c.JSON(http.StatusOK, ReportResponse{Report: report})
}

func (h *InterviewHandler) respondError(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, interview.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Interview not found"})
	case errors.Is(err, interview.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Access denied"})
	case errors.Is(err, interview.ErrEnded):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Interview has ended"})
	case errors.Is(err, interview.ErrInvalidType),
		errors.Is(err, interview.ErrInvalidDifficulty),
		errors.Is(err, interview.ErrMissingRole),
		errors.Is(err, interview.ErrNoTestCases):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request data", Details: err.Error()})
	case errors.Is(err, sandbox.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Code execution is not available"})
	default:
		h.logger.Errorf("%s error: %v", op, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: op + " failed"})
	}
}
