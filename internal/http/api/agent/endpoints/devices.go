package endpoints

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Playtag-Media/boxfleet/internal/command"
	"github.com/Playtag-Media/boxfleet/internal/dispatch"
	"github.com/Playtag-Media/boxfleet/internal/http/api"
	"github.com/Playtag-Media/boxfleet/internal/http/api/agent/packets"
	"github.com/Playtag-Media/boxfleet/internal/registry"
)

// AgentController serves the device-facing surface: registration, config
// polls, heartbeats, and the command queue drain.
type AgentController struct {
	reg      *registry.Service
	commands *dispatch.Service
}

func NewAgentController(reg *registry.Service, commands *dispatch.Service) *AgentController {
	return &AgentController{reg: reg, commands: commands}
}

func AgentModule(reg *registry.Service, commands *dispatch.Service) api.Module {
	ctl := NewAgentController(reg, commands)
	return api.ModuleFunc(func(c *api.Controller) {
		c.POST("/devices/register", ctl.registerDevice)
		c.GET("/devices/:uuid/config", ctl.getConfig)
		c.POST("/devices/:uuid/heartbeat", ctl.heartbeat)

		// command queue
		c.GET("/remote-commands/pending/:uuid", ctl.pendingCommands)
		c.PATCH("/remote-commands/:id/status", ctl.updateCommandStatus)
	})
}

func (a *AgentController) registerDevice(ctx *gin.Context) (any, *api.APIError) {
	var request packets.RegisterDeviceRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	device, err := a.reg.Register(request.UUID, request.Name, request.IP, request.MAC)
	if err != nil {
		return nil, api.FromError(err)
	}
	return packets.NewDeviceResponse(device), nil
}

func (a *AgentController) getConfig(ctx *gin.Context) (any, *api.APIError) {
	cfg, err := a.reg.Config(ctx.Request.Context(), ctx.Param("uuid"))
	if err != nil {
		return nil, api.FromError(err)
	}
	return cfg, nil
}

func (a *AgentController) heartbeat(ctx *gin.Context) (any, *api.APIError) {
	if err := a.reg.Heartbeat(ctx.Param("uuid")); err != nil {
		return nil, api.FromError(err)
	}
	return gin.H{"success": true}, nil
}

func (a *AgentController) pendingCommands(ctx *gin.Context) (any, *api.APIError) {
	pending, err := a.commands.Pending(ctx.Param("uuid"))
	if err != nil {
		return nil, api.FromError(err)
	}
	return packets.NewCommandResponses(pending), nil
}

func (a *AgentController) updateCommandStatus(ctx *gin.Context) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	var request packets.UpdateCommandStatusRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	cmd, err := a.commands.UpdateStatus(id, command.Status(request.Status), request.Result, request.Error)
	if err != nil {
		return nil, api.FromError(err)
	}
	return packets.NewCommandResponse(cmd), nil
}
