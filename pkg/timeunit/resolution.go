// Package timeunit converts between naive wall-clock datetimes and the
// integer time units used by the rest of finitecap.
package timeunit

import (
	"errors"
	"fmt"
	"time"
)

// ErrNaiveRequired is returned (wrapped) when a caller supplies a
// timezone-aware time.Time. All times in finitecap are facility-local and
// naive; finitecap never interprets a *time.Location.
var ErrNaiveRequired = errors.New("timeunit: naive datetime required")

// ErrMisaligned is returned (wrapped) when a datetime does not fall exactly
// on a resolution unit boundary relative to the epoch. finitecap never
// rounds implicitly.
var ErrMisaligned = errors.New("timeunit: datetime not aligned to resolution")

// Resolution is a fixed unit size, in seconds, paired with a label for
// diagnostics. It is an immutable value and safe to share across goroutines.
type Resolution struct {
	UnitSeconds int64
	Label       string
}

// Minute is the one-minute resolution used by most calendars.
var Minute = Resolution{UnitSeconds: 60, Label: "minute"}

// Hour is the one-hour resolution, useful for coarse capacity models.
var Hour = Resolution{UnitSeconds: 3600, Label: "hour"}

// rejectAware rejects any time.Time that isn't plain facility-local wall
// clock. finitecap represents naive datetimes as time.Time values in
// time.UTC (never time.Local or a named zone) so that two equal wall-clock
// readings always compare equal regardless of where the process runs.
func rejectAware(t time.Time, name string) error {
	if loc := t.Location(); loc != time.UTC {
		return fmt.Errorf("%s: %w (location %s)", name, ErrNaiveRequired, loc)
	}
	return nil
}

// ToInt converts dt to an integer count of units from epoch. It fails with
// ErrNaiveRequired if either dt or epoch has a location other than time.UTC,
// and with ErrMisaligned if the time between epoch and dt is not a whole
// multiple of UnitSeconds.
func (r Resolution) ToInt(dt, epoch time.Time) (int64, error) {
	if err := rejectAware(dt, "dt"); err != nil {
		return 0, err
	}
	if err := rejectAware(epoch, "epoch"); err != nil {
		return 0, err
	}
	delta := dt.Sub(epoch)
	unit := time.Duration(r.UnitSeconds) * time.Second
	if rem := delta % unit; rem != 0 {
		return 0, fmt.Errorf("%s does not align to %s resolution (unit_seconds=%d): remainder %v: %w",
			dt.Format(time.RFC3339Nano), r.Label, r.UnitSeconds, rem, ErrMisaligned)
	}
	return int64(delta / unit), nil
}

// ToDatetime converts an integer count of units from epoch back to a
// datetime. It does not check epoch: the result carries epoch's location,
// so an aware epoch yields an aware result.
func (r Resolution) ToDatetime(t int64, epoch time.Time) time.Time {
	return epoch.Add(time.Duration(t*r.UnitSeconds) * time.Second)
}
