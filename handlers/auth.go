package handlers

import (
	"net/http"

	"tripmind/services"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Register(c *gin.Context) {
	var in services.RegisterInput
	if err := bindJSON(c, &in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": msgBadBody})
		return
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	user, err := h.Auth.Register(ctx, in)
	if err != nil {
		h.failAuth(c, "register", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User registered successfully.",
		"user":    user,
	})
}

func (h *Handler) Login(c *gin.Context) {
	var in services.LoginInput
	if err := bindJSON(c, &in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": msgBadBody})
		return
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	res, err := h.Auth.Login(ctx, in)
	if err != nil {
		h.failAuth(c, "login", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"token":   res.Token,
		"user":    res.User,
	})
}

// ListUsers is a development helper; it is not access controlled.
func (h *Handler) ListUsers(c *gin.Context) {
	ctx, cancel := dbContext(c)
	defer cancel()

	users, err := h.Auth.ListUsers(ctx)
	if err != nil {
		h.fail(c, "list users", err)
		return
	}
	c.JSON(http.StatusOK, users)
}
