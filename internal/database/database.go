package database

import (
	"fmt"
	"log"

	"github.com/bby-kanta/rizin-yamanote-line-game/internal/config"
	"github.com/bby-kanta/rizin-yamanote-line-game/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg *config.Config) *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)

	// TranslateError lets unique-index violations surface as
	// gorm.ErrDuplicatedKey, which the services remap to game-rule failures.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	log.Println("database connected")
	return db
}

func AutoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.User{},
		&models.Fighter{},
		&models.FighterFeatureCategory{},
		&models.FighterFeature{},
		&models.GameSession{},
		&models.GamePlayer{},
		&models.UsedFighter{},
		&models.QuizSession{},
		&models.QuizParticipant{},
		&models.QuizAnswer{},
		&models.QuizHint{},
	)
	if err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}
	log.Println("database migrated")
}
