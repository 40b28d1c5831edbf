package endpoints

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Playtag-Media/boxfleet/internal/db"
	"github.com/Playtag-Media/boxfleet/internal/http/api"
	"github.com/Playtag-Media/boxfleet/internal/http/api/admin/packets"
	"github.com/Playtag-Media/boxfleet/internal/registry"
)

const defaultEventPageSize = 50

// DeviceController serves the operator view of the fleet.
type DeviceController struct {
	store db.Store
	reg   *registry.Service
}

func NewDeviceController(store db.Store, reg *registry.Service) *DeviceController {
	return &DeviceController{store: store, reg: reg}
}

func DeviceModule(store db.Store, reg *registry.Service) api.Module {
	ctl := NewDeviceController(store, reg)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/devices", ctl.listDevices)
		c.GET("/devices/:uuid", ctl.getDevice)
		c.PUT("/devices/:uuid", ctl.updateDevice)
		c.GET("/devices/:uuid/events", ctl.listDeviceEvents)
		c.GET("/companies", ctl.listCompanies)
	})
}

func (d *DeviceController) listDevices(ctx *gin.Context) (any, *api.APIError) {
	devices, err := d.store.ListDevices()
	if err != nil {
		return nil, api.FromError(err)
	}

	response := make([]packets.DeviceResponse, 0, len(devices))
	for _, dev := range devices {
		response = append(response, packets.NewDeviceResponse(dev.Device, dev.CompanyName, d.reg.Online(dev.Device)))
	}
	return response, nil
}

func (d *DeviceController) getDevice(ctx *gin.Context) (any, *api.APIError) {
	device, err := d.store.GetDeviceByUUID(ctx.Param("uuid"))
	if err != nil {
		return nil, api.FromError(err)
	}
	return packets.NewDeviceResponse(device, nil, d.reg.Online(device)), nil
}

func (d *DeviceController) updateDevice(ctx *gin.Context) (any, *api.APIError) {
	var request packets.UpdateDeviceRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	patch := db.DevicePatch{
		Name:         request.Name,
		IPAddress:    request.IP,
		MACAddress:   request.MAC,
		StreamingURL: request.StreamingURL,
		Volume:       request.Volume,
		Status:       request.Status,
		PlayerMode:   request.PlayerMode,
		CompanyID:    request.CompanyID,
	}
	device, err := d.reg.Update(ctx.Request.Context(), ctx.Param("uuid"), patch)
	if err != nil {
		return nil, api.FromError(err)
	}
	return packets.NewDeviceResponse(device, nil, d.reg.Online(device)), nil
}

func (d *DeviceController) listDeviceEvents(ctx *gin.Context) (any, *api.APIError) {
	uuid := ctx.Param("uuid")
	if _, err := d.store.GetDeviceByUUID(uuid); err != nil {
		return nil, api.FromError(err)
	}

	page, err := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid page"}
	}
	pageSize, err := strconv.Atoi(ctx.DefaultQuery("page_size", strconv.Itoa(defaultEventPageSize)))
	if err != nil || pageSize < 1 || pageSize > 500 {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid page_size"}
	}

	events, err := d.store.ListDeviceEvents(uuid, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, api.FromError(err)
	}

	response := make([]packets.EventResponse, 0, len(events))
	for _, e := range events {
		response = append(response, packets.NewEventResponse(e))
	}
	return gin.H{"page": page, "page_size": pageSize, "events": response}, nil
}

// listCompanies backs the targeting dropdowns: bulk commands and
// schedules both fan out by company.
func (d *DeviceController) listCompanies(ctx *gin.Context) (any, *api.APIError) {
	companies, err := d.store.ListCompanies()
	if err != nil {
		return nil, api.FromError(err)
	}
	return companies, nil
}
