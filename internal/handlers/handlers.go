package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"medcare-server/internal/utils"
)

// parseIDParam reads a positive integer path parameter, writing a 400
// response and returning false when it is malformed.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		utils.BadRequest(c, "Invalid "+name+" parameter")
		return 0, false
	}
	return uint(id), true
}
