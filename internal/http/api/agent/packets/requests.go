package packets

// RegisterDeviceRequest is the boot-time upsert a device agent sends.
type RegisterDeviceRequest struct {
	UUID string  `json:"uuid" binding:"required"`
	Name *string `json:"name"`
	IP   *string `json:"ip"`
	MAC  *string `json:"mac"`
}

// UpdateCommandStatusRequest is the outcome callback for one command.
type UpdateCommandStatusRequest struct {
	Status string  `json:"status" binding:"required"`
	Result *string `json:"result"`
	Error  *string `json:"error"`
}
