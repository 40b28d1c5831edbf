package endpoints

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Playtag-Media/boxfleet/internal/clock"
	"github.com/Playtag-Media/boxfleet/internal/cron"
	"github.com/Playtag-Media/boxfleet/internal/db"
	"github.com/Playtag-Media/boxfleet/internal/http/api"
	"github.com/Playtag-Media/boxfleet/internal/http/api/admin/packets"
	"github.com/Playtag-Media/boxfleet/internal/model"
	"github.com/Playtag-Media/boxfleet/internal/scheduler"
)

// ScheduleController serves schedule CRUD and the enable toggle. Disabled
// schedules are kept, never deleted, by the toggle; the DELETE endpoint is
// for rules an operator wants gone entirely.
type ScheduleController struct {
	store db.Store
	clk   clock.Clock
}

func NewScheduleController(store db.Store, clk clock.Clock) *ScheduleController {
	return &ScheduleController{store: store, clk: clk}
}

func ScheduleModule(store db.Store, clk clock.Clock) api.Module {
	ctl := NewScheduleController(store, clk)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/schedules", ctl.listSchedules)
		c.POST("/schedules", ctl.createSchedule)
		c.GET("/schedules/:id", ctl.getSchedule)
		c.PATCH("/schedules/:id", ctl.updateSchedule)
		c.PATCH("/schedules/:id/toggle", ctl.toggleSchedule)
		c.DELETE("/schedules/:id", ctl.deleteSchedule)
	})
}

func (s *ScheduleController) listSchedules(ctx *gin.Context) (any, *api.APIError) {
	list, err := s.store.ListSchedules()
	if err != nil {
		return nil, api.FromError(err)
	}

	response := make([]packets.ScheduleResponse, 0, len(list))
	for _, it := range list {
		response = append(response, packets.NewScheduleResponse(it))
	}
	return response, nil
}

func (s *ScheduleController) createSchedule(ctx *gin.Context) (any, *api.APIError) {
	var request packets.CreateScheduleRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	if err := scheduler.ValidateAction(request.ActionType, request.Value); err != nil {
		return nil, api.FromError(err)
	}
	expr, err := cron.Parse(request.CronExpr)
	if err != nil {
		return nil, api.FromError(err)
	}
	if request.DeviceUUID != nil {
		if _, err := s.store.GetDeviceByUUID(*request.DeviceUUID); err != nil {
			return nil, api.FromError(err)
		}
	}
	if request.CompanyID != nil {
		if _, err := s.store.GetCompanyByID(*request.CompanyID); err != nil {
			return nil, api.FromError(err)
		}
	}

	enabled := true
	if request.Enabled != nil {
		enabled = *request.Enabled
	}

	sc, err := s.store.CreateSchedule(model.Schedule{
		Name:          request.Name,
		ActionType:    request.ActionType,
		DeviceUUID:    request.DeviceUUID,
		CompanyID:     request.CompanyID,
		Value:         request.Value,
		CronExpr:      request.CronExpr,
		Enabled:       enabled,
		NextExecution: expr.Next(s.clk.Now()),
	})
	if err != nil {
		return nil, api.FromError(err)
	}
	return packets.NewScheduleResponse(sc), nil
}

func (s *ScheduleController) getSchedule(ctx *gin.Context) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	sc, err := s.store.GetSchedule(id)
	if err != nil {
		return nil, api.FromError(err)
	}
	return packets.NewScheduleResponse(sc), nil
}

func (s *ScheduleController) updateSchedule(ctx *gin.Context) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	var request packets.UpdateScheduleRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	existing, err := s.store.GetSchedule(id)
	if err != nil {
		return nil, api.FromError(err)
	}

	actionType := existing.ActionType
	if request.ActionType != nil {
		actionType = *request.ActionType
	}
	value := existing.Value
	if request.Value != nil {
		value = *request.Value
	}
	if err := scheduler.ValidateAction(actionType, value); err != nil {
		return nil, api.FromError(err)
	}

	patch := db.SchedulePatch{
		Name:       request.Name,
		ActionType: request.ActionType,
		DeviceUUID: request.DeviceUUID,
		CompanyID:  request.CompanyID,
		Value:      request.Value,
		CronExpr:   request.CronExpr,
	}
	if request.CronExpr != nil {
		expr, err := cron.Parse(*request.CronExpr)
		if err != nil {
			return nil, api.FromError(err)
		}
		next := expr.Next(s.clk.Now())
		patch.NextExecution = &next
	}

	if err := s.store.UpdateSchedule(id, patch); err != nil {
		return nil, api.FromError(err)
	}

	sc, err := s.store.GetSchedule(id)
	if err != nil {
		return nil, api.FromError(err)
	}
	return packets.NewScheduleResponse(sc), nil
}

func (s *ScheduleController) toggleSchedule(ctx *gin.Context) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	var request packets.ToggleScheduleRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	existing, err := s.store.GetSchedule(id)
	if err != nil {
		return nil, api.FromError(err)
	}

	// recompute next_execution on toggle so a re-enabled rule fires at its
	// next natural slot, not a timestamp from before it was disabled
	expr, err := cron.Parse(existing.CronExpr)
	if err != nil {
		return nil, api.FromError(err)
	}
	if err := s.store.SetScheduleEnabled(id, *request.Enabled, expr.Next(s.clk.Now())); err != nil {
		return nil, api.FromError(err)
	}

	sc, err := s.store.GetSchedule(id)
	if err != nil {
		return nil, api.FromError(err)
	}
	return packets.NewScheduleResponse(sc), nil
}

func (s *ScheduleController) deleteSchedule(ctx *gin.Context) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	if err := s.store.DeleteSchedule(id); err != nil {
		return nil, api.FromError(err)
	}
	return gin.H{"message": "deleted"}, nil
}
