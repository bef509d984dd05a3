package handlers

import (
	"net/http"

	"tripmind/models"
	"tripmind/services"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListTrips(c *gin.Context) {
	ctx, cancel := dbContext(c)
	defer cancel()

	trips, err := h.Trips.ListTrips(ctx)
	if err != nil {
		h.fail(c, "list trips", err)
		return
	}
	c.JSON(http.StatusOK, trips)
}

// CreateTrip attributes the trip to the bearer token's user when the body
// names none.
func (h *Handler) CreateTrip(c *gin.Context) {
	var in services.CreateTripInput
	if err := bindJSON(c, &in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgBadBody})
		return
	}
	if in.User == "" {
		in.User = userID(c)
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	trip, err := h.Trips.CreateTrip(ctx, in)
	if err != nil {
		h.fail(c, "create trip", err)
		return
	}
	c.JSON(http.StatusCreated, trip)
}

// PlanTrip never fails because of an outbound integration; those come
// back as placeholder fields.
func (h *Handler) PlanTrip(c *gin.Context) {
	var req models.PlanRequest
	if err := bindJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgBadBody})
		return
	}
	resp, err := h.Planner.Plan(c.Request.Context(), req)
	if err != nil {
		h.fail(c, "plan trip", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
