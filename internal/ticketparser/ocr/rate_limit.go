package ocr

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"ticketscan/backend/internal/ticketparser/core"
)

// RateLimited keeps one token bucket in front of a paid or CPU-heavy OCR backend.
type RateLimited struct {
	next    core.Transcriber
	limiter *rate.Limiter
}

func NewRateLimited(next core.Transcriber, rps float64, burst int) *RateLimited {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (r *RateLimited) Transcribe(ctx context.Context, image []byte, hints []string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return r.next.Transcribe(ctx, image, hints)
}

func backoffDuration(base time.Duration, attempt int, jitterFn func(max int64) int64) time.Duration {
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	if attempt < 0 {
		attempt = 0
	}
	backoff := base << attempt
	if jitterFn == nil {
		return backoff
	}
	jitter := time.Duration(jitterFn(int64(base)))
	if jitter < 0 {
		jitter = 0
	}
	return backoff + jitter
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
