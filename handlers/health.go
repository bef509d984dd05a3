package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Test(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "API Working"})
}

// Health answers 200 whatever the database state, so the process can be
// probed while MongoDB is still connecting.
func (h *Handler) Health(c *gin.Context) {
	state := "unknown"
	if h.StoreState != nil {
		state = h.StoreState()
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": state})
}
