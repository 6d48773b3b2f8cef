package config

import (
	"log"
	"os"
	"strconv"

	"deliverus-api/models"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// JWTSecret used to sign tokens — read from env or fallback
var JWTSecret []byte

type Config struct {
	Env       string
	Port      int
	DBPath    string
	JWTSecret string
}

// Load reads the environment (a local .env is honored when present).
func Load() *Config {
	_ = godotenv.Load()
	return &Config{
		Env:       getEnv("APP_ENV", "development"),
		Port:      getEnvAsInt("PORT", 8080),
		DBPath:    getEnv("DB_PATH", "deliverus.db"),
		JWTSecret: getEnv("JWT_SECRET", "deliverus_super_secret_2025"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func InitDB(cfg *Config) {
	JWTSecret = []byte(cfg.JWTSecret)

	var err error
	DB, err = gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	log.Println("✅ Database connected and migrated successfully")
}

// Migrate applies the schema for all models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Restaurant{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.Review{},
	)
}
