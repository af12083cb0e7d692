package handlers

import (
	"net/http"

	"biotrack.com.au/biotrack/connector"
	"biotrack.com.au/biotrack/web/common"
	"github.com/gin-gonic/gin"
)

// GetStatus reports the state of every device session.
func (h *Handler) GetStatus(c *gin.Context) {
	statuses := make([]connector.SessionStatus, 0, len(h.Sessions))
	for _, s := range h.Sessions {
		statuses = append(statuses, s.Status())
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(statuses))
}
