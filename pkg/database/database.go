package database

import (
	"accounting_academy_backend/internal/config"
	"accounting_academy_backend/internal/model"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Info),
		TranslateError: true,
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	// Bootstrap admin account so a fresh install is manageable.
	var count int64
	db.Model(&model.User{}).Where("role = ?", model.Admin).Count(&count)
	if count == 0 {
		hashed, err := bcrypt.GenerateFromPassword([]byte("admin12345"), bcrypt.DefaultCost)
		if err == nil {
			db.Create(&model.User{
				Name:     "Administrator",
				Email:    "admin@accounting-academy.local",
				Password: string(hashed),
				Role:     model.Admin,
			})
			log.Println("Default admin account created (admin@accounting-academy.local), change the password")
		}
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
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
}
