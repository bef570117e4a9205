package service

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// OrgThrottle limits sink deliveries per organization over a rolling hour.
type OrgThrottle struct {
	mu       sync.Mutex
	perHour  int
	limiters map[string]*rate.Limiter
}

func NewOrgThrottle(perHour int) *OrgThrottle {
	return &OrgThrottle{perHour: perHour, limiters: map[string]*rate.Limiter{}}
}

// Allow consumes one delivery slot for the organization at the given time.
// A non-positive limit disables throttling.
func (t *OrgThrottle) Allow(organizationID string, at time.Time) bool {
	if t == nil || t.perHour <= 0 {
		return true
	}
	t.mu.Lock()
	limiter, ok := t.limiters[organizationID]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(time.Hour/time.Duration(t.perHour)), t.perHour)
		t.limiters[organizationID] = limiter
	}
	t.mu.Unlock()
	return limiter.AllowN(at, 1)
}
