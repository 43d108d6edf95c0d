package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/bby-kanta/rizin-yamanote-line-game/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"operation successful"`
}

// respondServiceError maps service failures onto the HTTP surface: rule
// violations and not-found are user-facing, anything else is logged as a
// server error without leaking details.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	case services.IsRuleViolation(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		log.Printf("handler error: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
