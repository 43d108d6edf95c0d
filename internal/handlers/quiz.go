package handlers

import (
	"net/http"

	"github.com/bby-kanta/rizin-yamanote-line-game/internal/services"
	"github.com/bby-kanta/rizin-yamanote-line-game/internal/ws"

	"github.com/gin-gonic/gin"
)

type QuizHandler struct {
	quizService *services.QuizService
	hub         *ws.Hub
}

func NewQuizHandler(quizService *services.QuizService, hub *ws.Hub) *QuizHandler {
	return &QuizHandler{quizService: quizService, hub: hub}
}

type CreateQuizRequest struct {
	TargetFighterID *uint `json:"target_fighter_id,omitempty" example:"1"`
	SoloMode        bool  `json:"solo_mode" example:"false"`
}

type QuizAnswerRequest struct {
	FighterID uint `json:"fighter_id" binding:"required" example:"1"`
}

// CreateQuiz godoc
// @Summary      Create a quiz session
// @Description  Omitting target_fighter_id picks a random quiz-eligible fighter. Solo sessions start immediately.
// @Tags         quizzes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateQuizRequest true "Quiz data"
// @Success      201 {object} services.QuizState
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/quizzes [post]
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	session, err := h.quizService.CreateSession(userID, req.TargetFighterID, req.SoloMode)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	// A solo run has no lobby phase; start it right away.
	if req.SoloMode {
		if _, err := h.quizService.Start(session.ID, userID); err != nil {
			respondServiceError(c, err)
			return
		}
	}

	state, err := h.quizService.GetSession(session.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, state)
}

// ListQuizzes godoc
// @Summary      List quiz sessions
// @Description  Active multiplayer sessions plus the caller's own
// @Tags         quizzes
// @Produce      json
// @Security     BearerAuth
// @Router       /api/v1/quizzes [get]
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	userID := c.GetUint("user_id")

	active, err := h.quizService.ListActive()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	mine, err := h.quizService.ListForUser(userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"active":      active,
		"my_sessions": mine,
	})
}

// GetQuiz godoc
// @Summary      Get quiz session state
// @Description  Full state for resync: participants, hint, per-user response status
// @Tags         quizzes
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Success      200 {object} services.QuizState
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/quizzes/{id} [get]
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	state, err := h.quizService.GetSession(sessionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// JoinQuiz godoc
// @Summary      Join a waiting quiz session
// @Tags         quizzes
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/quizzes/{id}/join [post]
func (h *QuizHandler) JoinQuiz(c *gin.Context) {
	userID := c.GetUint("user_id")
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	participant, err := h.quizService.Join(sessionID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.hub.Broadcast(ws.QuizChannel(sessionID), ws.Event{
		Type: ws.EventParticipantJoined,
		Data: participant,
	})
	c.JSON(http.StatusOK, MessageResponse{Message: "joined"})
}

// StartQuiz godoc
// @Summary      Start a quiz session
// @Description  Creator only; requires 2+ participants (unless solo) all connected
// @Tags         quizzes
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Success      200 {object} services.QuizState
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/quizzes/{id}/start [post]
func (h *QuizHandler) StartQuiz(c *gin.Context) {
	userID := c.GetUint("user_id")
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	if _, err := h.quizService.Start(sessionID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	state, err := h.quizService.GetSession(sessionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.hub.Broadcast(ws.QuizChannel(sessionID), ws.Event{
		Type: ws.EventSessionStarted,
		Data: gin.H{"hint": state.CurrentHint},
	})
	c.JSON(http.StatusOK, state)
}

// SubmitAnswer godoc
// @Summary      Guess the target fighter for the current hint
// @Tags         quizzes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Param        request body QuizAnswerRequest true "Guess"
// @Success      200 {object} services.AnswerResult
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/quizzes/{id}/answers [post]
func (h *QuizHandler) SubmitAnswer(c *gin.Context) {
	userID := c.GetUint("user_id")
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	var req QuizAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.quizService.SubmitAnswer(sessionID, userID, req.FighterID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.broadcastAnswerResult(sessionID, userID, result)
	c.JSON(http.StatusOK, result)
}

// Pass godoc
// @Summary      Pass on the current hint
// @Tags         quizzes
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Success      200 {object} services.AnswerResult
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/quizzes/{id}/pass [post]
func (h *QuizHandler) Pass(c *gin.Context) {
	userID := c.GetUint("user_id")
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	result, err := h.quizService.Pass(sessionID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.broadcastAnswerResult(sessionID, userID, result)
	c.JSON(http.StatusOK, result)
}

// broadcastAnswerResult emits the per-response event, then whichever
// follow-up the response triggered: the next hint or the final results. The
// emission order mirrors the commit order inside the transaction.
func (h *QuizHandler) broadcastAnswerResult(sessionID, userID uint, result *services.AnswerResult) {
	channel := ws.QuizChannel(sessionID)

	h.hub.Broadcast(channel, ws.Event{
		Type: ws.EventParticipantAnswered,
		Data: gin.H{
			"user_id": userID,
			"status":  result.Outcome,
		},
	})

	switch {
	case result.SessionEnded:
		state, err := h.quizService.GetSession(sessionID)
		if err != nil {
			return
		}
		h.hub.Broadcast(channel, ws.Event{
			Type: ws.EventGameEnded,
			Data: gin.H{
				"winner_user":    state.WinnerUser,
				"target_fighter": state.TargetFighter,
				"participants":   state.Participants,
			},
		})
	case result.HintAdvanced:
		hint, err := h.quizService.CurrentHint(sessionID)
		if err != nil {
			return
		}
		h.hub.Broadcast(channel, ws.Event{
			Type: ws.EventNextHint,
			Data: gin.H{
				"hint":       hint,
				"hint_index": result.HintIndex,
			},
		})
	}
}
