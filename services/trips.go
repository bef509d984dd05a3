package services

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"tripmind/models"
	"tripmind/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const msgDestinationRequired = "Destination is required."

// CreateTripInput mirrors the request body. The optional fields stay loose
// so both JSON numbers and strings are accepted.
type CreateTripInput struct {
	Destination string `json:"destination"`
	StartDate   any    `json:"startDate"`
	EndDate     any    `json:"endDate"`
	Budget      any    `json:"budget"`
	Notes       string `json:"notes"`
	User        string `json:"user"`
}

type TripService struct {
	trips repository.TripRepository
	now   func() time.Time
}

func NewTripService(trips repository.TripRepository) *TripService {
	return &TripService{trips: trips, now: time.Now}
}

func (s *TripService) ListTrips(ctx context.Context) ([]models.TripView, error) {
	trips, err := s.trips.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	return trips, nil
}

func (s *TripService) CreateTrip(ctx context.Context, in CreateTripInput) (*models.Trip, error) {
	if in.Destination == "" {
		return nil, validation(msgDestinationRequired, nil)
	}

	trip := &models.Trip{
		Destination: in.Destination,
		Notes:       in.Notes,
		CreatedAt:   s.now(),
	}
	var err error
	if trip.StartDate, err = parseDate("startDate", in.StartDate); err != nil {
		return nil, err
	}
	if trip.EndDate, err = parseDate("endDate", in.EndDate); err != nil {
		return nil, err
	}
	if trip.Budget, err = parseBudget(in.Budget); err != nil {
		return nil, err
	}
	if trip.User, err = parseObjectID("user", in.User); err != nil {
		return nil, err
	}

	if err := s.trips.Create(ctx, trip); err != nil {
		return nil, fmt.Errorf("create trip: %w", err)
	}
	return trip, nil
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// parseDate omits falsy values and rejects anything that is not a date
// string.
func parseDate(field string, v any) (*time.Time, error) {
	switch d := v.(type) {
	case nil:
		return nil, nil
	case bool:
		if !d {
			return nil, nil
		}
	case string:
		d = strings.TrimSpace(d)
		if d == "" {
			return nil, nil
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, d); err == nil {
				t = t.UTC()
				return &t, nil
			}
		}
	}
	return nil, validation(fmt.Sprintf("Invalid %s.", field), nil)
}

// parseBudget accepts a JSON number or a numeric string; zero and empty
// values are omitted.
func parseBudget(v any) (*float64, error) {
	var b float64
	switch x := v.(type) {
	case nil:
		return nil, nil
	case bool:
		if x {
			return nil, validation("Invalid budget.", nil)
		}
		return nil, nil
	case float64:
		b = x
	case string:
		x = strings.TrimSpace(x)
		if x == "" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return nil, validation("Invalid budget.", err)
		}
		b = f
	default:
		return nil, validation("Invalid budget.", nil)
	}
	if math.IsNaN(b) || math.IsInf(b, 0) {
		return nil, validation("Invalid budget.", nil)
	}
	if b == 0 {
		return nil, nil
	}
	return &b, nil
}

func parseObjectID(field, hex string) (*primitive.ObjectID, error) {
	if hex == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return nil, validation(fmt.Sprintf("Invalid %s.", field), err)
	}
	return &id, nil
}
