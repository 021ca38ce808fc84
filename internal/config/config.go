package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	DBDSN   string
	BaseURL string
	LogFile string

	MailHost     string
	MailPort     string
	MailUsername string
	MailPassword string
	MailFrom     string
}

func Load() Config {
	// .env is optional; deployments usually set the environment directly.
	_ = godotenv.Load()

	cfg := Config{
		Port:         getenv("PORT", "8080"),
		DBDSN:        getenv("DB_DSN", "lucaslea.db"), // sqlite file in project root
		BaseURL:      getenv("BASE_URL", "http://localhost:8080"),
		LogFile:      getenv("LOG_FILE", "./lucaslea.log"),
		MailHost:     getenv("MAIL_HOST", "localhost"),
		MailPort:     getenv("MAIL_PORT", "587"),
		MailUsername: os.Getenv("MAIL_USERNAME"),
		MailPassword: os.Getenv("MAIL_PASSWORD"),
		MailFrom:     getenv("MAIL_FROM", os.Getenv("MAIL_USERNAME")),
	}

	log.Printf("[config] PORT=%s DB_DSN=%s BASE_URL=%s LOG_FILE=%s MAIL_HOST=%s MAIL_PORT=%s",
		cfg.Port, cfg.DBDSN, cfg.BaseURL, cfg.LogFile, cfg.MailHost, cfg.MailPort)
	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
