package models

// Placeholders substituted when an outbound call fails.
const (
	FallbackItinerary  = "Could not generate itinerary."
	WeatherUnavailable = "Could not fetch weather."
)

// PlanRequest is the body of POST /api/trips/plan. Budget, Days and the
// interest entries are kept loose: any JSON value is accepted and only
// ever rendered into the prompt.
type PlanRequest struct {
	Destination string   `json:"destination" validate:"required"`
	Budget      any      `json:"budget" validate:"truthy"`
	Days        any      `json:"days" validate:"truthy"`
	Interests   []any    `json:"interests" validate:"required,min=1"`
}

// Outcome is the result of one outbound call: either a value or the error
// that replaced it.
type Outcome[T any] struct {
	Value T
	Err   error
}

func Succeeded[T any](v T) Outcome[T] { return Outcome[T]{Value: v} }

func Failed[T any](err error) Outcome[T] { return Outcome[T]{Err: err} }

func (o Outcome[T]) OK() bool { return o.Err == nil }

// Or returns the value, or fallback when the call failed.
func (o Outcome[T]) Or(fallback T) T {
	if o.Err != nil {
		return fallback
	}
	return o.Value
}

// Itinerary is the completion text plus whatever followed its
// "Recommendations:" marker.
type Itinerary struct {
	Text            string
	Recommendations []string
}

type Weather struct {
	Temp        float64 `json:"temp"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
}

type WeatherError struct {
	Error string `json:"error"`
}

// Plan gathers the three sub-call outcomes.
type Plan struct {
	Itinerary Outcome[Itinerary]
	Weather   Outcome[Weather]
	MapURL    Outcome[string]
}

type PlanResponse struct {
	Itinerary       string   `json:"itinerary"`
	Weather         any      `json:"weather"`
	MapURL          string   `json:"mapUrl"`
	Recommendations []string `json:"recommendations"`
}

// Response merges the outcomes. It is total: every combination of
// failures produces a response.
func (p Plan) Response() PlanResponse {
	resp := PlanResponse{
		Itinerary:       FallbackItinerary,
		Recommendations: []string{},
		MapURL:          p.MapURL.Or(""),
	}
	if p.Itinerary.OK() {
		resp.Itinerary = p.Itinerary.Value.Text
		if p.Itinerary.Value.Recommendations != nil {
			resp.Recommendations = p.Itinerary.Value.Recommendations
		}
	}
	if p.Weather.OK() {
		resp.Weather = p.Weather.Value
	} else {
		resp.Weather = WeatherError{Error: WeatherUnavailable}
	}
	return resp
}
