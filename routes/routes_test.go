package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tripmind/auth"
	"tripmind/handlers"
	"tripmind/middleware"
	"tripmind/models"
	"tripmind/repository"
	"tripmind/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ready struct{ ok atomic.Bool }

func (r *ready) Ready() bool { return r.ok.Load() }

type outbound struct {
	calls atomic.Int32
	fail  atomic.Bool
}

func (o *outbound) Generate(ctx context.Context, prompt string) (string, error) {
	o.calls.Add(1)
	if o.fail.Load() {
		return "", errors.New("openai down")
	}
	return "Day 1: museums\nRecommendations:\nEat pastries", nil
}

func (o *outbound) Current(ctx context.Context, city string) (models.Weather, error) {
	o.calls.Add(1)
	if o.fail.Load() {
		return models.Weather{}, errors.New("weather down")
	}
	return models.Weather{Temp: 21.5, Description: "few clouds", Icon: "02d"}, nil
}

func (o *outbound) StaticMapURL(ctx context.Context, destination string) (string, error) {
	o.calls.Add(1)
	if o.fail.Load() {
		return "", errors.New("maps down")
	}
	return "https://maps.example/" + destination, nil
}

type RouterSuite struct {
	suite.Suite
	router *gin.Engine
	store  *repository.MemoryStore
	issuer *auth.Issuer
	db     *ready
	ext    *outbound
}

func (s *RouterSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.store = repository.NewMemoryStore()
	s.issuer = auth.NewIssuer("test-secret", time.Hour)
	s.db = &ready{}
	s.db.ok.Store(true)
	s.ext = &outbound{}

	h := &handlers.Handler{
		Auth:       services.NewAuthService(s.store.Users(), s.issuer),
		Trips:      services.NewTripService(s.store.Trips()),
		Community:  services.NewCommunityService(s.store.Posts(), nil),
		Planner:    services.NewPlanner(s.ext, s.ext, s.ext, log),
		StoreState: func() string { return "memory" },
		Log:        log,
	}
	s.router = SetupRouter(Deps{
		Handler:     h,
		Tokens:      s.issuer,
		Database:    s.db,
		PlanLimiter: middleware.NewIPRateLimiter(100, time.Minute),
		Log:         log,
	})
}

func (s *RouterSuite) do(method, path string, body any, header ...string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterSuite) decode(w *httptest.ResponseRecorder, dst any) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

func (s *RouterSuite) register(name, email, password string) map[string]any {
	w := s.do(http.MethodPost, "/api/auth/register", map[string]string{"name": name, "email": email, "password": password})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var body map[string]any
	s.decode(w, &body)
	return body
}

func (s *RouterSuite) TestTestRoute() {
	w := s.do(http.MethodGet, "/api/test", nil)
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"message":"API Working"}`, w.Body.String())
}

func (s *RouterSuite) TestHealthIgnoresDatabaseState() {
	s.db.ok.Store(false)
	for _, path := range []string{"/health", "/api/health"} {
		w := s.do(http.MethodGet, path, nil)
		s.Equal(http.StatusOK, w.Code)
		s.JSONEq(`{"status":"ok","database":"memory"}`, w.Body.String())
	}
}

func (s *RouterSuite) TestRegisterTwice() {
	body := s.register("Ana", "ana@example.com", "pw")
	s.Equal(true, body["success"])
	s.Equal("User registered successfully.", body["message"])
	user := body["user"].(map[string]any)
	s.Equal("Ana", user["name"])
	s.NotEmpty(user["id"])
	s.NotContains(user, "password")

	w := s.do(http.MethodPost, "/api/auth/register", map[string]string{"name": "Ana", "email": "ana@example.com", "password": "pw"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.JSONEq(`{"success":false,"message":"Email already in use."}`, w.Body.String())
}

func (s *RouterSuite) TestRegisterMissingFields() {
	w := s.do(http.MethodPost, "/api/auth/register", map[string]string{"email": "a@b.c"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.JSONEq(`{"success":false,"message":"All fields are required."}`, w.Body.String())

	w = s.do(http.MethodPost, "/api/auth/register", nil)
	s.Equal(http.StatusBadRequest, w.Code)
	s.JSONEq(`{"success":false,"message":"All fields are required."}`, w.Body.String())
}

func (s *RouterSuite) TestLogin() {
	s.register("Ana", "ana@example.com", "pw")

	w := s.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "ana@example.com", "password": "pw"})
	s.Require().Equal(http.StatusOK, w.Code)
	var body struct {
		Success bool              `json:"success"`
		Message string            `json:"message"`
		Token   string            `json:"token"`
		User    models.PublicUser `json:"user"`
	}
	s.decode(w, &body)
	s.True(body.Success)
	s.Equal("Login successful", body.Message)
	s.Equal("ana@example.com", body.User.Email)

	claims, err := s.issuer.Parse(body.Token)
	s.Require().NoError(err)
	s.Equal(body.User.ID, claims.UserID)
}

func (s *RouterSuite) TestLoginFailuresIdentical() {
	s.register("Ana", "ana@example.com", "pw")

	wrong := s.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "ana@example.com", "password": "nope"})
	unknown := s.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "ghost@example.com", "password": "pw"})

	s.Equal(http.StatusBadRequest, wrong.Code)
	s.Equal(wrong.Code, unknown.Code)
	s.Equal(wrong.Body.String(), unknown.Body.String())
	s.JSONEq(`{"success":false,"message":"Invalid email or password."}`, wrong.Body.String())
}

func (s *RouterSuite) TestListUsers() {
	s.register("Ana", "ana@example.com", "pw")
	w := s.do(http.MethodGet, "/api/auth/users", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var users []map[string]any
	s.decode(w, &users)
	s.Require().Len(users, 1)
	s.Equal("Ana", users[0]["name"])
	s.NotContains(users[0], "password")
}

func (s *RouterSuite) TestTripsOrderedNewestFirst() {
	for _, d := range []string{"t1", "t2", "t3"} {
		w := s.do(http.MethodPost, "/api/trips", map[string]any{"destination": d})
		s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
		time.Sleep(2 * time.Millisecond)
	}

	w := s.do(http.MethodGet, "/api/trips", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var trips []models.TripView
	s.decode(w, &trips)
	s.Require().Len(trips, 3)
	s.Equal("t3", trips[0].Destination)
	s.Equal("t2", trips[1].Destination)
	s.Equal("t1", trips[2].Destination)
}

func (s *RouterSuite) TestCreateTrip() {
	w := s.do(http.MethodPost, "/api/trips", map[string]any{
		"destination": "Lisbon",
		"startDate":   "2024-06-01",
		"budget":      900,
		"notes":       "pasteis",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var trip map[string]any
	s.decode(w, &trip)
	s.Equal("Lisbon", trip["destination"])
	s.Equal(float64(900), trip["budget"])
	s.Equal("2024-06-01T00:00:00Z", trip["startDate"])
	s.NotContains(trip, "endDate")

	w = s.do(http.MethodPost, "/api/trips", map[string]any{"budget": 10})
	s.Equal(http.StatusBadRequest, w.Code)
	s.JSONEq(`{"message":"Destination is required."}`, w.Body.String())
}

func (s *RouterSuite) TestCreateTripUsesTokenOwner() {
	s.register("Ana", "ana@example.com", "pw")
	login := s.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "ana@example.com", "password": "pw"})
	var lb struct{ Token string }
	s.decode(login, &lb)

	w := s.do(http.MethodPost, "/api/trips", map[string]any{"destination": "Oslo"}, "Authorization", "Bearer "+lb.Token)
	s.Require().Equal(http.StatusCreated, w.Code)

	w = s.do(http.MethodGet, "/api/trips", nil)
	var trips []models.TripView
	s.decode(w, &trips)
	s.Require().Len(trips, 1)
	s.Require().NotNil(trips[0].User)
	s.Equal("Ana", trips[0].User.Name)
}

func (s *RouterSuite) TestPlanTrip() {
	w := s.do(http.MethodPost, "/api/trips/plan", map[string]any{
		"destination": "Paris", "budget": 1000, "days": 3, "interests": []string{"art"},
	})
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{
		"itinerary": "Day 1: museums\nRecommendations:\nEat pastries",
		"weather": {"temp": 21.5, "description": "few clouds", "icon": "02d"},
		"mapUrl": "https://maps.example/Paris",
		"recommendations": ["Eat pastries"]
	}`, w.Body.String())
}

func (s *RouterSuite) TestPlanTripAllOutboundFail() {
	s.ext.fail.Store(true)
	w := s.do(http.MethodPost, "/api/trips/plan", map[string]any{
		"destination": "Paris", "budget": "cheap", "days": "2", "interests": []string{"food"},
	})
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{
		"itinerary": "Could not generate itinerary.",
		"weather": {"error": "Could not fetch weather."},
		"mapUrl": "",
		"recommendations": []
	}`, w.Body.String())
}

func (s *RouterSuite) TestPlanTripMissingFieldsMakesNoCalls() {
	bodies := []map[string]any{
		{"budget": 1, "days": 1, "interests": []string{"a"}},
		{"destination": "x", "days": 1, "interests": []string{"a"}},
		{"destination": "x", "budget": 1, "interests": []string{"a"}},
		{"destination": "x", "budget": 1, "days": 1},
	}
	for _, b := range bodies {
		w := s.do(http.MethodPost, "/api/trips/plan", b)
		s.Equal(http.StatusBadRequest, w.Code)
		s.JSONEq(`{"message":"Missing required fields."}`, w.Body.String())
	}
	s.Zero(s.ext.calls.Load())
}

func (s *RouterSuite) TestPlanTripWorksWithoutDatabase() {
	s.db.ok.Store(false)
	w := s.do(http.MethodPost, "/api/trips/plan", map[string]any{
		"destination": "Paris", "budget": 1, "days": 1, "interests": []string{"a"},
	})
	s.Equal(http.StatusOK, w.Code)
}

func (s *RouterSuite) TestPlanTripAcceptsNonStringInterests() {
	w := s.do(http.MethodPost, "/api/trips/plan", map[string]any{
		"destination": "Paris", "budget": 500, "days": 3, "interests": []any{1, 2},
	})
	s.Require().Equal(http.StatusOK, w.Code)
	s.EqualValues(3, s.ext.calls.Load())
}

func (s *RouterSuite) TestPlanTripMalformedBody() {
	w := s.do(http.MethodPost, "/api/trips/plan", map[string]any{
		"destination": "Paris", "budget": 500, "days": 3, "interests": "food",
	})
	s.Equal(http.StatusBadRequest, w.Code)
	s.JSONEq(`{"message":"Invalid request body."}`, w.Body.String())
	s.Zero(s.ext.calls.Load())
}

func (s *RouterSuite) TestDatabaseUnavailable() {
	s.db.ok.Store(false)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/trips"},
		{http.MethodPost, "/api/auth/login"},
		{http.MethodGet, "/api/community"},
		{http.MethodPut, "/api/community/like/abc"},
	} {
		w := s.do(tc.method, tc.path, map[string]any{})
		s.Equal(http.StatusServiceUnavailable, w.Code, tc.path)
		s.JSONEq(`{"message":"Database unavailable."}`, w.Body.String())
	}
}

func (s *RouterSuite) TestCommunityFlow() {
	w := s.do(http.MethodPost, "/api/community/create", map[string]any{
		"title": "Fjords", "description": "Stunning", "destination": "New Zealand",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var post models.CommunityPost
	s.decode(w, &post)
	s.Equal(0, post.Likes)
	s.Nil(post.CreatedBy)

	s.Require().Equal(http.StatusCreated, s.do(http.MethodPost, "/api/community/create", map[string]any{
		"title": "Tacos", "description": "Yum", "destination": "Mexico",
	}).Code)

	w = s.do(http.MethodGet, "/api/community/zealand", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var filtered []models.PostView
	s.decode(w, &filtered)
	s.Require().Len(filtered, 1)
	s.Equal("Fjords", filtered[0].Title)

	w = s.do(http.MethodGet, "/api/community", nil)
	var all []models.PostView
	s.decode(w, &all)
	s.Len(all, 2)

	w = s.do(http.MethodPut, "/api/community/like/"+post.ID.Hex(), nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var liked models.CommunityPost
	s.decode(w, &liked)
	s.Equal(1, liked.Likes)
}

func (s *RouterSuite) TestCreatePostMissingFields() {
	w := s.do(http.MethodPost, "/api/community/create", map[string]any{"title": "x"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.JSONEq(`{"message":"Missing required fields."}`, w.Body.String())
}

func (s *RouterSuite) TestLikeMissingPost() {
	for _, id := range []string{"0123456789abcdef01234567", "not-an-id"} {
		w := s.do(http.MethodPut, "/api/community/like/"+id, nil)
		s.Equal(http.StatusNotFound, w.Code)
		s.JSONEq(`{"message":"Post not found."}`, w.Body.String())
	}
}

func (s *RouterSuite) TestConcurrentLikes() {
	w := s.do(http.MethodPost, "/api/community/create", map[string]any{
		"title": "t", "description": "d", "destination": "Peru",
	})
	var post models.CommunityPost
	s.decode(w, &post)

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPut, "/api/community/like/"+post.ID.Hex(), nil)
			rec := httptest.NewRecorder()
			s.router.ServeHTTP(rec, req)
			assert.Equal(s.T(), http.StatusOK, rec.Code)
		}()
	}
	wg.Wait()

	w = s.do(http.MethodGet, "/api/community", nil)
	var all []models.PostView
	s.decode(w, &all)
	s.Require().Len(all, 1)
	s.Equal(n, all[0].Likes)
}

func (s *RouterSuite) TestUploadNotConfigured() {
	w := s.do(http.MethodPost, "/api/community/upload", nil)
	s.Equal(http.StatusServiceUnavailable, w.Code)
}

func (s *RouterSuite) TestUnknownAPIRoute() {
	w := s.do(http.MethodGet, "/api/nope", nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.JSONEq(`{"message":"Endpoint not found.","path":"/api/nope"}`, w.Body.String())
}

func (s *RouterSuite) TestCORSReflectsOrigin() {
	req := httptest.NewRequest(http.MethodOptions, "/api/trips", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal("http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	s.Equal("true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func TestPlanRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ext := &outbound{}
	store := repository.NewMemoryStore()
	issuer := auth.NewIssuer("s", time.Hour)
	db := &ready{}

	router := SetupRouter(Deps{
		Handler: &handlers.Handler{
			Auth:      services.NewAuthService(store.Users(), issuer),
			Trips:     services.NewTripService(store.Trips()),
			Community: services.NewCommunityService(store.Posts(), nil),
			Planner:   services.NewPlanner(ext, ext, ext, log),
			Log:       log,
		},
		Tokens:      issuer,
		Database:    db,
		PlanLimiter: middleware.NewIPRateLimiter(2, time.Minute),
		Log:         log,
	})

	body := `{"destination":"Rome","budget":1,"days":1,"interests":["food"]}`
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/trips/plan", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
