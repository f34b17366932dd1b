// Package utilities holds the small self-contained tools that need no
// upstream access.
package utilities

import (
	"time"
)

// CurrentDatetime pairs the current UTC time with its Europe/London
// projection, both in RFC 3339.
type CurrentDatetime struct {
	UTC   string `json:"utc"`
	Local string `json:"local"`
}

// DateTimeService reports wall-clock time. The clock is swappable for
// tests.
type DateTimeService struct {
	now    func() time.Time
	london *time.Location
}

// NewDateTimeService loads the Europe/London zone once. When the zone
// database is unavailable the local field degrades to UTC.
func NewDateTimeService() *DateTimeService {
	london, err := time.LoadLocation("Europe/London")
	if err != nil {
		london = time.UTC
	}
	return &DateTimeService{now: time.Now, london: london}
}

// CurrentDatetime returns the current time in both zones.
func (s *DateTimeService) CurrentDatetime() CurrentDatetime {
	now := s.now()
	return CurrentDatetime{
		UTC:   now.UTC().Format(time.RFC3339),
		Local: now.In(s.london).Format(time.RFC3339),
	}
}
