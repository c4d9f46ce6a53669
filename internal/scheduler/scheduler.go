package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/andra1/bagelbot/pkg/clock"
	pkgerrors "github.com/andra1/bagelbot/pkg/errors"
	"github.com/andra1/bagelbot/pkg/logger"
)

// TimeOfDay is a 24h local wall-clock target.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// On anchors the target to the date of ref in ref's location.
func (t TimeOfDay) On(ref time.Time) time.Time {
	return time.Date(ref.Year(), ref.Month(), ref.Day(), t.Hour, t.Minute, t.Second, 0, ref.Location())
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return TimeOfDay{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid trigger time %q, expected HH:MM[:SS]", value))
	}
	fields := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return TimeOfDay{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid trigger time %q, expected HH:MM[:SS]", value))
		}
		fields[i] = n
	}
	tod := TimeOfDay{Hour: fields[0], Minute: fields[1], Second: fields[2]}
	if tod.Hour < 0 || tod.Hour > 23 || tod.Minute < 0 || tod.Minute > 59 || tod.Second < 0 || tod.Second > 59 {
		return TimeOfDay{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("trigger time %q is out of range", value))
	}
	return tod, nil
}

// Scheduler suspends a run until a wall-clock target.
type Scheduler struct {
	clock  clock.Clock
	logger *logger.Logger
}

func New(clk clock.Clock, logg *logger.Logger) (*Scheduler, error) {
	if clk == nil {
		return nil, fmt.Errorf("clock is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Scheduler{clock: clk, logger: logg}, nil
}

// WaitUntil blocks until wall-clock time reaches target on the current day.
// A target that has already passed today returns immediately; the wait never
// rolls over to the next day.
func (s *Scheduler) WaitUntil(ctx context.Context, target TimeOfDay) error {
	now := s.clock.Now()
	at := target.On(now)
	delta := at.Sub(now)
	if delta <= 0 {
		s.logger.Info(ctx, fmt.Sprintf("trigger time %s already passed, starting immediately", target))
		return nil
	}

	s.logger.Info(s.logger.WithField(ctx, "wait", delta.String()), fmt.Sprintf("waiting until %s", target))
	return s.clock.Sleep(ctx, delta)
}
