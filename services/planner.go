package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"tripmind/models"

	"github.com/go-playground/validator/v10"
)

type ItineraryGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type WeatherProvider interface {
	Current(ctx context.Context, city string) (models.Weather, error)
}

type MapProvider interface {
	StaticMapURL(ctx context.Context, destination string) (string, error)
}

var recommendationsPattern = regexp.MustCompile(`(?s)Recommendations:(.*)`)

// Planner combines an itinerary, the current weather and a map preview
// into one response. Outbound failures become placeholders; only invalid
// input is reported as an error.
type Planner struct {
	itinerary ItineraryGenerator
	weather   WeatherProvider
	maps      MapProvider
	validate  *validator.Validate
	log       *slog.Logger
}

func NewPlanner(itinerary ItineraryGenerator, weather WeatherProvider, maps MapProvider, log *slog.Logger) *Planner {
	return &Planner{
		itinerary: itinerary,
		weather:   weather,
		maps:      maps,
		validate:  newValidator(),
		log:       log,
	}
}

// Plan validates req before any outbound call, then runs the three calls
// concurrently and merges whatever came back.
func (p *Planner) Plan(ctx context.Context, req models.PlanRequest) (models.PlanResponse, error) {
	if err := p.validate.Struct(req); err != nil {
		return models.PlanResponse{}, validation(msgMissingFields, err)
	}

	var (
		plan models.Plan
		wg   sync.WaitGroup
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		plan.Itinerary = p.generateItinerary(ctx, req)
	}()
	go func() {
		defer wg.Done()
		plan.Weather = p.fetchWeather(ctx, req.Destination)
	}()
	go func() {
		defer wg.Done()
		plan.MapURL = p.fetchMap(ctx, req.Destination)
	}()
	wg.Wait()

	return plan.Response(), nil
}

func (p *Planner) generateItinerary(ctx context.Context, req models.PlanRequest) models.Outcome[models.Itinerary] {
	text, err := p.itinerary.Generate(ctx, BuildPrompt(req))
	if err != nil {
		p.log.WarnContext(ctx, "itinerary generation failed", "destination", req.Destination, "error", err)
		return models.Failed[models.Itinerary](err)
	}
	return models.Succeeded(models.Itinerary{Text: text, Recommendations: ExtractRecommendations(text)})
}

func (p *Planner) fetchWeather(ctx context.Context, destination string) models.Outcome[models.Weather] {
	w, err := p.weather.Current(ctx, destination)
	if err != nil {
		p.log.WarnContext(ctx, "weather lookup failed", "destination", destination, "error", err)
		return models.Failed[models.Weather](err)
	}
	return models.Succeeded(w)
}

func (p *Planner) fetchMap(ctx context.Context, destination string) models.Outcome[string] {
	u, err := p.maps.StaticMapURL(ctx, destination)
	if err != nil {
		p.log.WarnContext(ctx, "map lookup failed", "destination", destination, "error", err)
		return models.Failed[string](err)
	}
	return models.Succeeded(u)
}

func BuildPrompt(req models.PlanRequest) string {
	return fmt.Sprintf(
		"Create a %s-day travel itinerary for %s with a budget of %s. Interests: %s. Include recommendations for activities, food, and must-see places.",
		display(req.Days), req.Destination, display(req.Budget), joinDisplay(req.Interests),
	)
}

// ExtractRecommendations returns the lines after the first
// "Recommendations:" marker, or nil when there is none.
func ExtractRecommendations(text string) []string {
	m := recommendationsPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return strings.Split(strings.TrimSpace(m[1]), "\n")
}

func joinDisplay(vs []any) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = display(v)
	}
	return strings.Join(parts, ", ")
}

// display renders loose JSON values without exponent notation. null
// renders empty.
func display(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	}
	return fmt.Sprint(v)
}
