package handlers

import (
	"net/http"
	"strconv"

	"github.com/bby-kanta/rizin-yamanote-line-game/internal/services"
	"github.com/bby-kanta/rizin-yamanote-line-game/internal/ws"

	"github.com/gin-gonic/gin"
)

type GameHandler struct {
	gameService *services.GameService
	hub         *ws.Hub
}

func NewGameHandler(gameService *services.GameService, hub *ws.Hub) *GameHandler {
	return &GameHandler{gameService: gameService, hub: hub}
}

type CreateGameRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100" example:"金曜夜の山手線ゲーム"`
}

type SubmitFighterRequest struct {
	FighterID uint `json:"fighter_id" binding:"required" example:"1"`
}

type EliminateRequest struct {
	UserID uint `json:"user_id" binding:"required" example:"2"`
}

// CreateGame godoc
// @Summary      Create an elimination game session
// @Description  Creates a session in waiting state; the creator joins as the first player
// @Tags         games
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateGameRequest true "Session data"
// @Success      201 {object} services.GameState
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/games [post]
func (h *GameHandler) CreateGame(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	session, err := h.gameService.CreateSession(userID, req.Name)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	state, _ := h.gameService.GetSession(session.ID)
	c.JSON(http.StatusCreated, state)
}

// ListGames godoc
// @Summary      List game sessions
// @Description  Joinable sessions plus the caller's active ones
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Router       /api/v1/games [get]
func (h *GameHandler) ListGames(c *gin.Context) {
	userID := c.GetUint("user_id")

	joinable, err := h.gameService.ListJoinable()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	mine, err := h.gameService.ListForUser(userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"joinable":    joinable,
		"my_sessions": mine,
	})
}

// GetGame godoc
// @Summary      Get game session state
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Success      200 {object} services.GameState
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/games/{id} [get]
func (h *GameHandler) GetGame(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	state, err := h.gameService.GetSession(sessionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// JoinGame godoc
// @Summary      Join a waiting game session
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/games/{id}/join [post]
func (h *GameHandler) JoinGame(c *gin.Context) {
	userID := c.GetUint("user_id")
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	player, err := h.gameService.Join(sessionID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.hub.Broadcast(ws.GameChannel(sessionID), ws.Event{
		Type: ws.EventPlayerJoined,
		Data: player,
	})
	c.JSON(http.StatusOK, MessageResponse{Message: "joined"})
}

// LeaveGame godoc
// @Summary      Leave a game session
// @Description  Leaving a running game counts as elimination
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/games/{id}/leave [post]
func (h *GameHandler) LeaveGame(c *gin.Context) {
	userID := c.GetUint("user_id")
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	if err := h.gameService.Leave(sessionID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	h.broadcastAfterElimination(sessionID, userID, ws.EventPlayerLeft)
	c.JSON(http.StatusOK, MessageResponse{Message: "left"})
}

// StartGame godoc
// @Summary      Start a game session
// @Description  Creator only; requires at least 2 players
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Success      200 {object} services.GameState
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/games/{id}/start [post]
func (h *GameHandler) StartGame(c *gin.Context) {
	userID := c.GetUint("user_id")
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	if _, err := h.gameService.StartGame(sessionID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	state, err := h.gameService.GetSession(sessionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.hub.Broadcast(ws.GameChannel(sessionID), ws.Event{
		Type: ws.EventGameStarted,
		Data: state,
	})
	c.JSON(http.StatusOK, state)
}

// SubmitFighter godoc
// @Summary      Use a fighter on your turn
// @Description  Consumes the fighter for this session and advances the turn
// @Tags         games
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Param        request body SubmitFighterRequest true "Fighter"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/games/{id}/fighters [post]
func (h *GameHandler) SubmitFighter(c *gin.Context) {
	userID := c.GetUint("user_id")
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	var req SubmitFighterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	used, err := h.gameService.SubmitFighter(sessionID, userID, req.FighterID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	state, _ := h.gameService.GetSession(sessionID)
	h.hub.Broadcast(ws.GameChannel(sessionID), ws.Event{
		Type: ws.EventFighterUsed,
		Data: gin.H{
			"used_fighter":           used,
			"current_turn_player_id": state.CurrentTurnPlayerID,
		},
	})
	c.JSON(http.StatusOK, MessageResponse{Message: used.Fighter.DisplayName() + "を選択しました"})
}

// Retire godoc
// @Summary      Retire from the game on your turn
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/games/{id}/retire [post]
func (h *GameHandler) Retire(c *gin.Context) {
	userID := c.GetUint("user_id")
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	if err := h.gameService.Retire(sessionID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	h.broadcastAfterElimination(sessionID, userID, ws.EventPlayerEliminated)
	c.JSON(http.StatusOK, MessageResponse{Message: "retired"})
}

// EliminatePlayer godoc
// @Summary      Eliminate a player
// @Description  Creator only
// @Tags         games
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Param        request body EliminateRequest true "Target player"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/games/{id}/eliminate [post]
func (h *GameHandler) EliminatePlayer(c *gin.Context) {
	userID := c.GetUint("user_id")
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	var req EliminateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	state, err := h.gameService.GetSession(sessionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if state.CreatorID != userID {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: services.ErrNotCreator.Error()})
		return
	}

	if err := h.gameService.EliminatePlayer(sessionID, req.UserID); err != nil {
		respondServiceError(c, err)
		return
	}

	h.broadcastAfterElimination(sessionID, req.UserID, ws.EventPlayerEliminated)
	c.JSON(http.StatusOK, MessageResponse{Message: "eliminated"})
}

// broadcastAfterElimination emits the elimination (or leave) event and, when
// the session just finished, the final result.
func (h *GameHandler) broadcastAfterElimination(sessionID, userID uint, eventType string) {
	state, err := h.gameService.GetSession(sessionID)
	if err != nil {
		return
	}

	h.hub.Broadcast(ws.GameChannel(sessionID), ws.Event{
		Type: eventType,
		Data: gin.H{
			"user_id":                userID,
			"status":                 state.Status,
			"current_turn_player_id": state.CurrentTurnPlayerID,
		},
	})

	if state.Winner != nil {
		h.hub.Broadcast(ws.GameChannel(sessionID), ws.Event{
			Type: ws.EventGameFinished,
			Data: gin.H{"winner": state.Winner},
		})
	}
}

func sessionParam(c *gin.Context) (uint, bool) {
	sessionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid session id"})
		return 0, false
	}
	return uint(sessionID), true
}
