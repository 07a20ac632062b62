// Package limiter spaces out requests toward a politeness-sensitive
// service. The next-allowed-request time can be persisted to a file so a
// restarted process keeps honoring a wait it was asked to make.
package limiter

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"
)

func New(filename string, delay time.Duration) *Limiter {
	return &Limiter{
		filename: filename,
		delay:    delay,
	}
}

type Limiter struct {
	filename string
	delay    time.Duration
	nextAt   time.Time
}

// Load restores a persisted next-request time, if one exists.
func (lim *Limiter) Load() error {
	if _, err := os.Stat(lim.filename); errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("error statting file: %w", err)
	}

	bs, err := os.ReadFile(lim.filename)
	if err != nil {
		return err
	}

	lim.nextAt, err = time.Parse(time.UnixDate, string(bs))
	if err != nil {
		return err
	}

	return nil
}

// Wait blocks until the next request is allowed, or until the context is
// canceled.
func (lim *Limiter) Wait(ctx context.Context) error {
	if !lim.nextAt.IsZero() {
		now := time.Now()
		dur := lim.nextAt.Sub(now)
		if dur > time.Second {
			log.Printf("waiting %s until %s",
				dur.Truncate(time.Second),
				lim.nextAt.Format(time.StampMilli))
		}

	wait:
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(dur):
			break wait
		}

		if err := os.Remove(lim.filename); err != nil &&
			!errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	return nil
}

// SetNextAt persists a server-requested wait of the given number of
// seconds, defaulting to a minute when the server didn't say.
func (lim *Limiter) SetNextAt(seconds int64) error {
	if seconds <= 0 {
		seconds = 60
	}
	waitTime := time.Duration(seconds)*time.Second + time.Second
	lim.nextAt = time.Now().Add(waitTime)
	if err := os.WriteFile(lim.filename, []byte(lim.nextAt.Format(time.UnixDate)), 0666); err != nil {
		return err
	}
	return nil
}

// Delay schedules the next request one configured delay from now.
func (lim *Limiter) Delay() {
	lim.nextAt = time.Now().Add(lim.delay)
}
