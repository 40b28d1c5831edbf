package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Playtag-Media/boxfleet/internal/clock"
	"github.com/Playtag-Media/boxfleet/internal/db"
	"github.com/Playtag-Media/boxfleet/internal/dispatch"
	"github.com/Playtag-Media/boxfleet/internal/http/api"
	adminapi "github.com/Playtag-Media/boxfleet/internal/http/api/admin/endpoints"
	agentapi "github.com/Playtag-Media/boxfleet/internal/http/api/agent/endpoints"
	"github.com/Playtag-Media/boxfleet/internal/registry"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, env Environment, store db.Store, reg *registry.Service, commands *dispatch.Service, clk clock.Clock) {
	// CORS
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
		},
		AllowCredentials: false,
	}))

	// device agents authenticate by knowing their own UUID; the boxes
	// cannot hold operator credentials
	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/agent",
	},
		agentapi.AgentModule(reg, commands),
	)

	// operator surface requires a bearer token from the auth service
	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/admin",
		Auth:      true,
		SecretKey: env.SecretKey,
	},
		adminapi.DeviceModule(store, reg),
		adminapi.CommandModule(commands),
		adminapi.ScheduleModule(store, clk),
	)
}
