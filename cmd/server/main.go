package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Playtag-Media/boxfleet/internal/alert"
	"github.com/Playtag-Media/boxfleet/internal/clock"
	"github.com/Playtag-Media/boxfleet/internal/db"
	"github.com/Playtag-Media/boxfleet/internal/dispatch"
	"github.com/Playtag-Media/boxfleet/internal/monitor"
	"github.com/Playtag-Media/boxfleet/internal/redis"
	"github.com/Playtag-Media/boxfleet/internal/registry"
	"github.com/Playtag-Media/boxfleet/internal/scheduler"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	env := LoadEnvironment()

	if env.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	if err := db.Init(env.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("db init failed")
	}
	if err := db.RunMigrations(env.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("db migrate failed")
	}

	if env.RedisAddress != "" {
		redis.InitRedis(env.RedisAddress, env.RedisUsername, env.RedisPassword)
	}

	notifier := InitNotifier(env)
	store := db.NewStore(nil)
	clk := clock.Real{}

	reg := registry.New(store, notifier, clk)
	commands := dispatch.New(store, clk)

	// the two background timers: connectivity sweep and scheduler tick
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go monitor.New(store, notifier, clk, env.EventRetentionDays).Run(ctx)
	go scheduler.New(store, reg, notifier, clk).Run(ctx)

	if env.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	RegisterRoutes(r, env, store, reg, commands, clk)

	log.Info().Str("address", env.ServerAddress).Msg("listening")
	if err := r.Run(env.ServerAddress); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

// InitNotifier selects the alerting backend: MQTT when a broker is
// configured, log-only otherwise.
func InitNotifier(env Environment) alert.Notifier {
	if env.MQTTBrokerURL == "" {
		log.Info().Msg("no MQTT broker configured, alerts go to the log only")
		return alert.LogNotifier{}
	}

	notifier, err := alert.NewMQTTNotifier(env.MQTTBrokerURL, "boxfleet-server")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize MQTT notifier")
	}
	log.Info().Str("broker", env.MQTTBrokerURL).Msg("MQTT alerting enabled")
	return notifier
}
