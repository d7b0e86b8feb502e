package http

import (
	"math"

	"golang.org/x/time/rate"
)

// inboundLimiter caps how many frames per second one connection may send.
// A nil limiter allows everything.
type inboundLimiter struct {
	limiter *rate.Limiter
}

func newInboundLimiter(perSecond float64) *inboundLimiter {
	if perSecond <= 0 {
		return nil
	}
	burst := int(math.Ceil(perSecond))
	return &inboundLimiter{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (l *inboundLimiter) allow() bool {
	if l == nil {
		return true
	}
	return l.limiter.Allow()
}
