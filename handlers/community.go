package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"tripmind/services"
	"tripmind/uploads"

	"github.com/gin-gonic/gin"
)

const maxImageSize = 10 << 20

func (h *Handler) CreatePost(c *gin.Context) {
	var in services.CreatePostInput
	if err := bindJSON(c, &in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgBadBody})
		return
	}
	if in.CreatedBy == "" {
		in.CreatedBy = userID(c)
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	post, err := h.Community.CreatePost(ctx, in)
	if err != nil {
		h.fail(c, "create post", err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *Handler) ListPosts(c *gin.Context) {
	ctx, cancel := dbContext(c)
	defer cancel()

	posts, err := h.Community.ListPosts(ctx)
	if err != nil {
		h.fail(c, "list posts", err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *Handler) ListPostsByCountry(c *gin.Context) {
	ctx, cancel := dbContext(c)
	defer cancel()

	posts, err := h.Community.ListPostsByCountry(ctx, c.Param("country"))
	if err != nil {
		h.fail(c, "list posts by country", err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *Handler) LikePost(c *gin.Context) {
	ctx, cancel := dbContext(c)
	defer cancel()

	post, err := h.Community.LikePost(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, "like post", err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// UploadImage stores the multipart "image" file and returns its URL for
// use as a post's imageUrl.
func (h *Handler) UploadImage(c *gin.Context) {
	if h.Images == nil || !h.Images.Configured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Image uploads are not configured."})
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImageSize)

	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No image file provided."})
		return
	}
	file, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No image file provided."})
		return
	}
	defer file.Close()

	name := strings.TrimSuffix(filepath.Base(fh.Filename), filepath.Ext(fh.Filename))
	url, err := h.Images.Upload(c.Request.Context(), file, name)
	if errors.Is(err, uploads.ErrNotConfigured) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Image uploads are not configured."})
		return
	}
	if err != nil {
		h.fail(c, "upload image", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
