package storage

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
)

const RunsRoot = "runs"

var pathComponentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// BuildRunObjectPath returns runs/<yyyy-mm-dd>/<run-id>/<name>, dated in UTC.
func BuildRunObjectPath(runID string, startedAt time.Time, name string) (string, error) {
	if err := validatePathComponent(runID, "run id"); err != nil {
		return "", err
	}
	if err := validatePathComponent(name, "object name"); err != nil {
		return "", err
	}
	return path.Join(RunsRoot, RunDayPrefix(startedAt), runID, name), nil
}

func RunDayPrefix(day time.Time) string {
	return day.UTC().Format(time.DateOnly)
}

// RunIDFromKey extracts the run id from a key built by BuildRunObjectPath.
// Keys may carry a store prefix in front of the runs root.
func RunIDFromKey(key string) (string, bool) {
	parts := strings.Split(strings.Trim(key, "/"), "/")
	for i := 0; i+3 < len(parts); i++ {
		if parts[i] == RunsRoot {
			return parts[i+2], true
		}
	}
	return "", false
}

// RunDayFromKey parses the UTC day segment of a key built by BuildRunObjectPath.
func RunDayFromKey(key string) (time.Time, bool) {
	parts := strings.Split(strings.Trim(key, "/"), "/")
	for i := 0; i+1 < len(parts); i++ {
		if parts[i] != RunsRoot {
			continue
		}
		day, err := time.Parse(time.DateOnly, parts[i+1])
		if err != nil {
			return time.Time{}, false
		}
		return day, true
	}
	return time.Time{}, false
}

func validatePathComponent(value, field string) error {
	if !pathComponentPattern.MatchString(value) {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	return nil
}
