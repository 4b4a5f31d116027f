package scheduler

import (
	"errors"
	"time"

	"crossposter/internal/platform"
)

// ErrInvalidState is returned when a manual operation is not permitted in
// the record's current status (e.g. editing a posted record).
var ErrInvalidState = errors.New("operation not permitted in current status")

type Config struct {
	Enabled bool

	// Interval between poll ticks. Defaults to one minute.
	Interval time.Duration

	// RatePerSec caps outbound platform calls across all records.
	RatePerSec int

	// Timezone for the poll trigger (IANA name); empty means local time.
	Timezone string
}

// Patch describes an edit to a post that is still scheduled.
// Nil fields are left unchanged; Platforms replaces the whole set.
type Patch struct {
	ScheduledTime *time.Time
	Platforms     []platform.ID
	Text          *string
}
