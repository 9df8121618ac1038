// Package health reports whether the reference store can serve interaction queries.
package health

import (
	"context"
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/alibahaloo/PharmaTrack-sub000/interfaces"
)

const statusTimeout = 2 * time.Second

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	store        interfaces.StatusProvider
	refreshTimes []string // HH:MM, empty when nothing is scheduled
	now          func() time.Time
}

// NewHealthChecker creates a health checker over any reference store. refreshTimes are
// the scheduled reload times, nil for stores that are not reloaded in-process.
func NewHealthChecker(store interfaces.StatusProvider, refreshTimes []string) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		store:        store,
		refreshTimes: refreshTimes,
		now:          time.Now,
	}
}

// HealthCheck returns the health status, its details and the HTTP status to answer with
func (h *HealthCheckerImpl) HealthCheck(ctx context.Context) (status string, details map[string]any, httpStatus int) {
	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	st, err := h.store.Status(ctx)
	if err != nil {
		return "unhealthy", map[string]any{
			"backend": st.Backend,
			"error":   "reference store unavailable",
		}, http.StatusServiceUnavailable
	}

	details = map[string]any{
		"backend":      st.Backend,
		"drugs":        st.Drugs,
		"interactions": st.Interactions,
		"is_updating":  st.Updating,
	}

	tracksRefresh := !st.LastUpdated.IsZero()
	var dataAge time.Duration
	if tracksRefresh {
		dataAge = h.now().Sub(st.LastUpdated)
		details["last_update"] = st.LastUpdated.Format(time.RFC3339)
		details["data_age_hours"] = math.Round(dataAge.Hours()*10) / 10
	}
	if next := h.CalculateNextUpdate(); !next.IsZero() {
		details["next_update"] = next.Format(time.RFC3339)
	}

	switch {
	case st.Drugs == 0 || st.Interactions == 0:
		status, httpStatus = "unhealthy", http.StatusServiceUnavailable

	case tracksRefresh && dataAge > 48*time.Hour:
		status, httpStatus = "unhealthy", http.StatusServiceUnavailable

	case tracksRefresh && dataAge > 24*time.Hour:
		status, httpStatus = "degraded", http.StatusServiceUnavailable

	case tracksRefresh && st.Updating && dataAge > 6*time.Hour:
		status, httpStatus = "degraded", http.StatusServiceUnavailable

	default:
		status, httpStatus = "healthy", http.StatusOK
	}

	return status, details, httpStatus
}

// CalculateNextUpdate returns the next scheduled update time
func (h *HealthCheckerImpl) CalculateNextUpdate() time.Time {
	return NextRefresh(h.now(), h.refreshTimes)
}

// NextRefresh returns the first HH:MM time strictly after now, today or tomorrow. It
// returns the zero time when times is empty or holds no parseable entry.
func NextRefresh(now time.Time, times []string) time.Time {
	var candidates []time.Time
	for _, value := range times {
		t, err := time.Parse("15:04", value)
		if err != nil {
			continue
		}
		today := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
		if !today.After(now) {
			today = today.AddDate(0, 0, 1)
		}
		candidates = append(candidates, today)
	}

	if len(candidates) == 0 {
		return time.Time{}
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Before(candidates[j]) })
	return candidates[0]
}
