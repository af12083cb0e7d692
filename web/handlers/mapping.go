package handlers

import (
	"net/http"

	"biotrack.com.au/biotrack/web/common"
	"github.com/gin-gonic/gin"
)

type MappingRequest struct {
	DeviceUserID int    `json:"deviceUserId" binding:"required,gte=1"`
	EmployeeCode string `json:"employeeCode" binding:"required,alphanum"`
}

// PutMapping upserts a device-user-id to employee-code mapping at runtime.
// Running sessions pick it up on the next event.
func (h *Handler) PutMapping(c *gin.Context) {
	var req MappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
		return
	}

	h.Identity.Update(req.DeviceUserID, req.EmployeeCode)
	c.JSON(http.StatusOK, common.NewSuccessResponse(req))
}

func (h *Handler) GetMappings(c *gin.Context) {
	c.JSON(http.StatusOK, common.NewSuccessResponse(h.Identity.Snapshot()))
}
