package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bby-kanta/rizin-yamanote-line-game/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a per-test in-memory database with the same error
// translation the production connection uses, so duplicate-key remapping
// behaves identically under test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
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
	))
	return db
}

func createUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	user := models.User{
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createFighter(t *testing.T, db *gorm.DB, fullName, hiragana string) *models.Fighter {
	t.Helper()
	fighter := models.Fighter{
		FullName:         fullName,
		FullNameHiragana: hiragana,
		IsActive:         true,
	}
	require.NoError(t, db.Create(&fighter).Error)
	return &fighter
}

func addFeature(t *testing.T, db *gorm.DB, fighterID uint, level int, text string) *models.FighterFeature {
	t.Helper()
	var category models.FighterFeatureCategory
	require.NoError(t, db.
		Where(models.FighterFeatureCategory{Name: "経歴"}).
		FirstOrCreate(&category).Error)

	feature := models.FighterFeature{
		FighterID:  fighterID,
		CategoryID: category.ID,
		Feature:    text,
		Level:      level,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, db.Create(&feature).Error)
	return &feature
}
