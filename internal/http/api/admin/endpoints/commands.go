package endpoints

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Playtag-Media/boxfleet/internal/command"
	"github.com/Playtag-Media/boxfleet/internal/dispatch"
	"github.com/Playtag-Media/boxfleet/internal/http/api"
	"github.com/Playtag-Media/boxfleet/internal/http/api/admin/packets"
	agentpackets "github.com/Playtag-Media/boxfleet/internal/http/api/agent/packets"
	"github.com/Playtag-Media/boxfleet/internal/http/middleware"
)

// CommandController serves the operator side of the command pipeline.
type CommandController struct {
	commands *dispatch.Service
}

func NewCommandController(commands *dispatch.Service) *CommandController {
	return &CommandController{commands: commands}
}

func CommandModule(commands *dispatch.Service) api.Module {
	ctl := NewCommandController(commands)
	return api.ModuleFunc(func(c *api.Controller) {
		c.POST("/remote-commands", ctl.createCommand)
		c.POST("/remote-commands/bulk", ctl.createBulkCommand)
		c.PATCH("/remote-commands/:id/cancel", ctl.cancelCommand)
		c.GET("/remote-commands/stats", ctl.commandStats)
	})
}

func (cc *CommandController) createCommand(ctx *gin.Context) (any, *api.APIError) {
	issuer, ok := middleware.GetCurrentIssuer(ctx)
	if !ok {
		return nil, &api.APIError{Code: http.StatusUnauthorized, Message: "unauthorized"}
	}

	var request packets.CreateCommandRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	cmd, err := cc.commands.Create(request.DeviceUUID, command.Type(request.CommandType), request.Parameters, issuer)
	if err != nil {
		return nil, api.FromError(err)
	}
	return agentpackets.NewCommandResponse(cmd), nil
}

func (cc *CommandController) createBulkCommand(ctx *gin.Context) (any, *api.APIError) {
	issuer, ok := middleware.GetCurrentIssuer(ctx)
	if !ok {
		return nil, &api.APIError{Code: http.StatusUnauthorized, Message: "unauthorized"}
	}

	var request packets.CreateBulkCommandRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	if len(request.DeviceUUIDs) == 0 && request.CompanyID == nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "either device_uuids or company_id is required"}
	}
	if len(request.DeviceUUIDs) > 0 && request.CompanyID != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "device_uuids and company_id are mutually exclusive"}
	}

	cmds, err := cc.commands.CreateBulk(request.DeviceUUIDs, request.CompanyID, command.Type(request.CommandType), request.Parameters, issuer)
	if err != nil {
		return nil, api.FromError(err)
	}
	return gin.H{"created": len(cmds), "commands": agentpackets.NewCommandResponses(cmds)}, nil
}

func (cc *CommandController) cancelCommand(ctx *gin.Context) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	cmd, err := cc.commands.Cancel(id)
	if err != nil {
		return nil, api.FromError(err)
	}
	return agentpackets.NewCommandResponse(cmd), nil
}

func (cc *CommandController) commandStats(ctx *gin.Context) (any, *api.APIError) {
	var deviceUUID *string
	if v := ctx.Query("device_uuid"); v != "" {
		deviceUUID = &v
	}

	stats, err := cc.commands.Stats(deviceUUID)
	if err != nil {
		return nil, api.FromError(err)
	}
	return stats, nil
}
