package validation

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/icco/backlog/models"
)

// dateRegex is a regular expression that matches dates in YYYY-MM-DD format.
var dateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseRating parses a 0-5 rating from user input. Zero means unrated.
func ParseRating(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("rating must be a number")
	}
	if f < 0 || f > 5 {
		return 0, fmt.Errorf("rating must be between 0 and 5")
	}
	return f, nil
}

// ParseHours parses a playtime amount from user input.
func ParseHours(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("hours must be a number")
	}
	return f, nil
}

// ValidateReleaseDate accepts provider-format dates (YYYY-MM-DD), the
// unknown sentinel, or empty.
func ValidateReleaseDate(date string) error {
	if date == "" || date == models.ReleaseDateUnknown {
		return nil
	}
	if !dateRegex.MatchString(date) {
		return fmt.Errorf("invalid date format: %s, expected YYYY-MM-DD", date)
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("invalid date: %w", err)
	}
	return nil
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, err error, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"error": err.Error(),
	}); err != nil {
		slog.Error("Failed to encode error response", slog.Any("error", err))
	}
}
