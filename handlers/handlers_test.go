package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"tripmind/models"
	"tripmind/repository"
	"tripmind/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeUploader struct {
	configured bool
	got        []byte
	name       string
	err        error
}

func (f *fakeUploader) Configured() bool { return f.configured }

func (f *fakeUploader) Upload(ctx context.Context, file io.Reader, name string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.got, _ = io.ReadAll(file)
	f.name = name
	return "https://cdn.example/" + name, nil
}

func multipartImage(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func newTestHandler(up ImageUploader) *Handler {
	return &Handler{Images: up, Log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestUploadImage(t *testing.T) {
	up := &fakeUploader{configured: true}
	h := newTestHandler(up)
	r := gin.New()
	r.POST("/upload", h.UploadImage)

	body, ctype := multipartImage(t, "image", "beach.jpg", []byte("jpeg-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ctype)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"url":"https://cdn.example/beach"}`, w.Body.String())
	assert.Equal(t, []byte("jpeg-bytes"), up.got)
}

func TestUploadImageErrors(t *testing.T) {
	cases := []struct {
		name   string
		up     *fakeUploader
		field  string
		status int
	}{
		{"not configured", &fakeUploader{}, "image", http.StatusServiceUnavailable},
		{"wrong field", &fakeUploader{configured: true}, "photo", http.StatusBadRequest},
		{"upstream failure", &fakeUploader{configured: true, err: errors.New("cloudinary 500")}, "image", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.POST("/upload", newTestHandler(tc.up).UploadImage)

			body, ctype := multipartImage(t, tc.field, "x.png", []byte("png"))
			req := httptest.NewRequest(http.MethodPost, "/upload", body)
			req.Header.Set("Content-Type", ctype)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

type brokenTrips struct{}

func (brokenTrips) Create(context.Context, *models.Trip) error { return errors.New("socket closed") }

func (brokenTrips) List(context.Context) ([]models.TripView, error) {
	return nil, errors.New("socket closed")
}

var _ repository.TripRepository = brokenTrips{}

func TestUnexpectedErrorsAreHidden(t *testing.T) {
	h := newTestHandler(nil)
	h.Trips = services.NewTripService(brokenTrips{})
	r := gin.New()
	r.GET("/trips", h.ListTrips)
	r.POST("/trips", h.CreateTrip)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/trips", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"Server error."}`, w.Body.String())

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/trips", bytes.NewBufferString(`{"destination":"Rome"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "socket closed")
}

func TestMalformedBody(t *testing.T) {
	h := newTestHandler(nil)
	h.Trips = services.NewTripService(repository.NewMemoryStore().Trips())
	r := gin.New()
	r.POST("/trips", h.CreateTrip)

	req := httptest.NewRequest(http.MethodPost, "/trips", bytes.NewBufferString(`{"destination":`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"Invalid request body."}`, w.Body.String())
}

func TestHealthWithoutState(t *testing.T) {
	r := gin.New()
	r.GET("/health", newTestHandler(nil).Health)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"status":"ok","database":"unknown"}`, w.Body.String())
}
