package main

import (
	"log"

	"github.com/bby-kanta/rizin-yamanote-line-game/internal/config"
	"github.com/bby-kanta/rizin-yamanote-line-game/internal/database"
	"github.com/bby-kanta/rizin-yamanote-line-game/internal/handlers"
	"github.com/bby-kanta/rizin-yamanote-line-game/internal/middleware"
	"github.com/bby-kanta/rizin-yamanote-line-game/internal/services"
	"github.com/bby-kanta/rizin-yamanote-line-game/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// @title           RIZIN Fighter Games API
// @version         1.0
// @description     Fighter roster with a turn-based elimination game and a hint-driven guessing quiz
// @host            localhost:8080
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter "Bearer {token}"

func main() {
	cfg := config.Load()

	db := database.Connect(cfg)
	database.AutoMigrate(db)

	hub := ws.NewHub()

	authService := services.NewAuthService(db, cfg.JWTSecret)
	fighterService := services.NewFighterService(db)
	presenceService := services.NewPresenceService(db)
	gameService := services.NewGameService(db)
	quizService := services.NewQuizService(db, fighterService, presenceService)

	authHandler := handlers.NewAuthHandler(authService)
	fighterHandler := handlers.NewFighterHandler(fighterService)
	gameHandler := handlers.NewGameHandler(gameService, hub)
	quizHandler := handlers.NewQuizHandler(quizService, hub)
	wsHandler := handlers.NewWSHandler(hub, presenceService)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/ws/game/:id", middleware.WSAuth(authService), wsHandler.HandleGameSocket)
	r.GET("/ws/quiz/:id", middleware.WSAuth(authService), wsHandler.HandleQuizSocket)

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		fighters := api.Group("/fighters")
		fighters.Use(middleware.JWTAuth(authService))
		{
			fighters.GET("", fighterHandler.ListFighters)
			fighters.GET("/search", fighterHandler.SearchFighters)
			fighters.GET("/quiz-eligible", fighterHandler.ListQuizEligible)
			fighters.GET("/:id", fighterHandler.GetFighter)
		}

		games := api.Group("/games")
		games.Use(middleware.JWTAuth(authService))
		{
			games.POST("", gameHandler.CreateGame)
			games.GET("", gameHandler.ListGames)
			games.GET("/:id", gameHandler.GetGame)
			games.POST("/:id/join", gameHandler.JoinGame)
			games.POST("/:id/leave", gameHandler.LeaveGame)
			games.POST("/:id/start", gameHandler.StartGame)
			games.POST("/:id/fighters", gameHandler.SubmitFighter)
			games.POST("/:id/retire", gameHandler.Retire)
			games.POST("/:id/eliminate", gameHandler.EliminatePlayer)
		}

		quizzes := api.Group("/quizzes")
		quizzes.Use(middleware.JWTAuth(authService))
		{
			quizzes.POST("", quizHandler.CreateQuiz)
			quizzes.GET("", quizHandler.ListQuizzes)
			quizzes.GET("/:id", quizHandler.GetQuiz)
			quizzes.POST("/:id/join", quizHandler.JoinQuiz)
			quizzes.POST("/:id/start", quizHandler.StartQuiz)
			quizzes.POST("/:id/answers", quizHandler.SubmitAnswer)
			quizzes.POST("/:id/pass", quizHandler.Pass)
		}
	}

	log.Printf("server starting on :%s", cfg.ServerPort)
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
