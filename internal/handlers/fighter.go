package handlers

import (
	"net/http"
	"strconv"

	"github.com/bby-kanta/rizin-yamanote-line-game/internal/services"

	"github.com/gin-gonic/gin"
)

type FighterHandler struct {
	fighterService *services.FighterService
}

func NewFighterHandler(fighterService *services.FighterService) *FighterHandler {
	return &FighterHandler{fighterService: fighterService}
}

// ListFighters godoc
// @Summary      List active fighters
// @Tags         fighters
// @Produce      json
// @Security     BearerAuth
// @Router       /api/v1/fighters [get]
func (h *FighterHandler) ListFighters(c *gin.Context) {
	fighters, err := h.fighterService.ListActive()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fighters)
}

// SearchFighters godoc
// @Summary      Incremental fighter search by hiragana
// @Tags         fighters
// @Produce      json
// @Security     BearerAuth
// @Param        q query string true "Hiragana query"
// @Router       /api/v1/fighters/search [get]
func (h *FighterHandler) SearchFighters(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "query is required"})
		return
	}

	fighters, err := h.fighterService.SearchByHiragana(query, 10)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fighters)
}

// GetFighter godoc
// @Summary      Get one fighter
// @Tags         fighters
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Fighter ID"
// @Router       /api/v1/fighters/{id} [get]
func (h *FighterHandler) GetFighter(c *gin.Context) {
	fighterID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid fighter id"})
		return
	}

	fighter, err := h.fighterService.GetFighter(uint(fighterID))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fighter)
}

// ListQuizEligible godoc
// @Summary      List fighters usable as quiz targets
// @Description  Fighters with at least one registered feature
// @Tags         fighters
// @Produce      json
// @Security     BearerAuth
// @Router       /api/v1/fighters/quiz-eligible [get]
func (h *FighterHandler) ListQuizEligible(c *gin.Context) {
	fighters, err := h.fighterService.QuizEligible()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fighters)
}
