package service

import (
	"accounting_academy_backend/internal/config"
	"accounting_academy_backend/internal/model"
	"accounting_academy_backend/pkg/logger"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

// newTestDB opens an isolated in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// A pooled second connection would see an empty :memory: database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&model.User{},
		&model.TestStage{},
		&model.StageQuestion{},
		&model.StageOption{},
		&model.UserProgress{},
		&model.StageProgress{},
		&model.QuickTest{},
		&model.QuickTestLevel{},
		&model.QuickTestResult{},
		&model.Certificate{},
		&model.UserTimer{},
		&model.Notification{},
		&model.ScreenshotAttempt{},
		&model.AdminAction{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpireTime = time.Hour
	cfg.JWT.GuestExpireTime = time.Hour
	cfg.Quiz.PassThreshold = 60
	cfg.Quiz.StartCountdownSeconds = 0
	cfg.Quiz.SessionTTLMinutes = 120
	cfg.Certificate.ScoreThreshold = 80
	cfg.Certificate.Issuer = "Accounting Academy"
	cfg.Certificate.PublicBaseURL = "http://localhost:8080"
	cfg.Timer.CheckpointSeconds = 30
	cfg.Timer.DefaultSeconds = 3600
	return cfg
}
