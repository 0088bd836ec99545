package api

import (
	"errors"
	"net/http"

	resdto "circulation-core/internal/handler/dto/response"
	"circulation-core/internal/handler/middleware"
	"circulation-core/internal/usecase/commands"
	"circulation-core/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var errIdempotencyKeyRequired = errors.New("Idempotency-Key header is required")

type CirculationHandler struct {
	circulationCommands commands.CirculationCommands
	loanQueries         queries.LoanQueries
}

func NewCirculationHandler(circulationCommands commands.CirculationCommands, loanQueries queries.LoanQueries) *CirculationHandler {
	return &CirculationHandler{
		circulationCommands: circulationCommands,
		loanQueries:         loanQueries,
	}
}

// @Summary Check out a copy
// @Description Create an active loan binding the caller to the copy
// @Tags circulation
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string true "Idempotency key for duplicate prevention"
// @Param id path string true "Copy ID"
// @Success 201 {object} resdto.LoanResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /copies/{id}/checkout [post]
func (h *CirculationHandler) Checkout(c *gin.Context) {
	actor, key, copyID, ok := h.commandInputs(c)
	if !ok {
		return
	}

	result, err := h.circulationCommands.Checkout(c.Request.Context(), key, actor, copyID)
	if err != nil {
		h.writeCommandError(c, err)
		return
	}

	status := http.StatusCreated
	if result.IsReplayed {
		status = http.StatusOK
	}
	c.JSON(status, resdto.FromCheckoutResult(result))
}

// @Summary Return a copy
// @Description Complete the active loan on the copy and release it
// @Tags circulation
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string true "Idempotency key for duplicate prevention"
// @Param id path string true "Copy ID"
// @Success 200 {object} resdto.LoanResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /copies/{id}/return [post]
func (h *CirculationHandler) ReturnCopy(c *gin.Context) {
	actor, key, copyID, ok := h.commandInputs(c)
	if !ok {
		return
	}

	result, err := h.circulationCommands.ReturnCopy(c.Request.Context(), key, actor, copyID)
	if err != nil {
		h.writeCommandError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromCirculationResult(result))
}

// @Summary Report a copy lost
// @Description Close the active loan as lost and take the copy out of circulation
// @Tags circulation
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string true "Idempotency key for duplicate prevention"
// @Param id path string true "Copy ID"
// @Success 200 {object} resdto.LoanResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /copies/{id}/lost [post]
func (h *CirculationHandler) ReportLost(c *gin.Context) {
	actor, key, copyID, ok := h.commandInputs(c)
	if !ok {
		return
	}

	result, err := h.circulationCommands.ReportLost(c.Request.Context(), key, actor, copyID)
	if err != nil {
		h.writeCommandError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromCirculationResult(result))
}

// @Summary Renew a loan
// @Description Extend the due date of an active loan
// @Tags circulation
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string true "Idempotency key for duplicate prevention"
// @Param id path string true "Loan ID"
// @Success 200 {object} resdto.LoanResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /loans/{id}/renew [post]
func (h *CirculationHandler) Renew(c *gin.Context) {
	actor, key, loanID, ok := h.commandInputs(c)
	if !ok {
		return
	}

	result, err := h.circulationCommands.Renew(c.Request.Context(), key, actor, loanID)
	if err != nil {
		h.writeCommandError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromCirculationResult(result))
}

// @Summary Get active loan for a copy
// @Description Get the currently active loan on the copy, if any
// @Tags circulation
// @Produce json
// @Security BearerAuth
// @Param id path string true "Copy ID"
// @Success 200 {object} resdto.LoanResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /copies/{id}/loan [get]
func (h *CirculationHandler) GetActiveLoan(c *gin.Context) {
	copyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid copy ID format",
		})
		return
	}

	view, err := h.loanQueries.GetActiveLoanByCopy(c.Request.Context(), copyID)
	if err != nil {
		switch {
		case errors.Is(err, queries.ErrNoActiveLoan):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "No active loan for copy",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromLoanView(view))
}

// @Summary Get user loans
// @Description Get all loans for the current user
// @Tags circulation
// @Produce json
// @Security BearerAuth
// @Success 200 {array} resdto.LoanListResponse
// @Failure 401 {object} map[string]string
// @Router /loans [get]
func (h *CirculationHandler) GetUserLoans(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	views, err := h.loanQueries.ListUserLoans(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	response := make([]*resdto.LoanListResponse, len(views))
	for i, rm := range views {
		response[i] = resdto.FromLoanListItem(rm)
	}

	c.JSON(http.StatusOK, response)
}

func (h *CirculationHandler) commandInputs(c *gin.Context) (commands.Actor, uuid.UUID, uuid.UUID, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return commands.Actor{}, uuid.Nil, uuid.Nil, false
	}

	key, err := h.getIdempotencyKey(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return commands.Actor{}, uuid.Nil, uuid.Nil, false
	}

	entityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid ID format",
		})
		return commands.Actor{}, uuid.Nil, uuid.Nil, false
	}

	return actor, key, entityID, true
}

func (h *CirculationHandler) writeCommandError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, commands.ErrCopyNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Copy not found",
		})
	case errors.Is(err, commands.ErrLoanNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Loan not found",
		})
	case errors.Is(err, commands.ErrNoActiveLoan):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "No active loan for copy",
		})
	case errors.Is(err, commands.ErrMemberIneligible):
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Member is not eligible to check out",
		})
	case errors.Is(err, commands.ErrNotLoanOwner):
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Loan belongs to another user",
		})
	case errors.Is(err, commands.ErrCopyUnavailable):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Copy is not available",
		})
	case errors.Is(err, commands.ErrLoanNotActive):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Loan is not active",
		})
	case errors.Is(err, commands.ErrRenewalLimitReached):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Renewal limit reached",
		})
	case errors.Is(err, commands.ErrKeyReuseMismatch):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "Idempotency key reused with a different request",
		})
	case errors.Is(err, commands.ErrOperationTimeout):
		c.JSON(http.StatusRequestTimeout, gin.H{
			"error": "Operation is still being processed, retry with the same key",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}

func (h *CirculationHandler) getIdempotencyKey(c *gin.Context) (uuid.UUID, error) {
	keyStr := c.GetHeader("Idempotency-Key")
	if keyStr == "" {
		return uuid.Nil, errIdempotencyKeyRequired
	}

	key, err := uuid.Parse(keyStr)
	if err != nil {
		return uuid.Nil, errors.New("invalid idempotency key format")
	}

	return key, nil
}
