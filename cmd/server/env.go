package main

import (
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

type Environment struct {
	Environment        string
	ServerAddress      string
	SecretKey          string
	DatabaseURL        string
	MigrationsPath     string
	RedisAddress       string
	RedisUsername      string
	RedisPassword      string
	MQTTBrokerURL      string
	EventRetentionDays int
}

// LoadEnvironment reads and validates env vars
func LoadEnvironment() Environment {
	env := Environment{
		Environment:   os.Getenv("APP_ENV"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		SecretKey:     os.Getenv("JWT_SECRET"),
		ServerAddress: os.Getenv("SERVER_ADDRESS"),

		RedisAddress:  os.Getenv("REDIS_ADDRESS"),
		RedisUsername: os.Getenv("REDIS_USERNAME"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		MQTTBrokerURL: os.Getenv("MQTT_BROKER_URL"),

		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
	}

	if env.ServerAddress == "" {
		env.ServerAddress = ":8080"
	}
	if env.MigrationsPath == "" {
		env.MigrationsPath = "./migrations"
	}

	env.EventRetentionDays = 90
	if v := os.Getenv("EVENT_RETENTION_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			log.Fatal().Str("value", v).Msg("EVENT_RETENTION_DAYS must be an integer")
		}
		env.EventRetentionDays = days
	}

	if env.DatabaseURL == "" || env.SecretKey == "" {
		log.Fatal().Msg("missing required environment variables")
	}

	return env
}
