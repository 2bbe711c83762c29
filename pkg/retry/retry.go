package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

type Operation = func() error

type Config struct {
	MaxRetries    int
	BackoffFactor float64
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	Jitter        time.Duration
}

func NewDefaultConfig() *Config {
	return &Config{
		MaxRetries:    5,
		BackoffFactor: 2,
		InitialDelay:  300 * time.Millisecond,
		MaxDelay:      20 * time.Second,
		Jitter:        50 * time.Millisecond,
	}
}

// NewQuickConfig suits calls that already run under a short deadline, such
// as scoring and summarization requests.
func NewQuickConfig() *Config {
	return &Config{
		MaxRetries:    2,
		BackoffFactor: 2,
		InitialDelay:  200 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		Jitter:        50 * time.Millisecond,
	}
}

// wait returns the pause before retry number n (0-based): the capped
// exponential delay plus up to Jitter of noise.
func (c *Config) wait(n int) time.Duration {
	d := float64(c.InitialDelay)
	for i := 0; i < n; i++ {
		d *= c.BackoffFactor
		if d >= float64(c.MaxDelay) {
			d = float64(c.MaxDelay)
			break
		}
	}
	if c.Jitter > 0 {
		d += float64(rand.Int64N(int64(c.Jitter)))
	}
	return time.Duration(d)
}

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent wraps err so that Do stops retrying and returns err as is.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

type Retrier struct {
	config *Config
}

func NewRetrier(config *Config) *Retrier {
	if config == nil {
		config = NewDefaultConfig()
	}
	return &Retrier{config: config}
}

// Do runs op until it succeeds, returns a Permanent error, runs out of
// retries or ctx ends. The last operation error is returned.
func (r *Retrier) Do(ctx context.Context, op Operation) error {
	for n := 0; ; n++ {
		err := op()
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if n >= r.config.MaxRetries {
			return err
		}

		timer := time.NewTimer(r.config.wait(n))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
