package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"tripmind/models"
)

// WeatherClient reads current conditions from OpenWeatherMap.
type WeatherClient struct {
	hc      *http.Client
	apiKey  string
	baseURL string
}

func NewWeatherClient(apiKey, baseURL string, hc *http.Client) *WeatherClient {
	return &WeatherClient{hc: hc, apiKey: apiKey, baseURL: strings.TrimRight(baseURL, "/")}
}

type weatherPayload struct {
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
}

// Current returns the metric temperature and first condition for city.
func (c *WeatherClient) Current(ctx context.Context, city string) (models.Weather, error) {
	if c.apiKey == "" {
		return models.Weather{}, ErrNotConfigured
	}
	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/weather?"+q.Encode(), nil)
	if err != nil {
		return models.Weather{}, err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return models.Weather{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Weather{}, fmt.Errorf("weather request: unexpected status %d", resp.StatusCode)
	}
	var p weatherPayload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return models.Weather{}, fmt.Errorf("decode weather: %w", err)
	}
	if len(p.Weather) == 0 {
		return models.Weather{}, errors.New("weather response has no conditions")
	}
	return models.Weather{
		Temp:        p.Main.Temp,
		Description: p.Weather[0].Description,
		Icon:        p.Weather[0].Icon,
	}, nil
}
