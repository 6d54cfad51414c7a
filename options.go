package gateway

import (
	"log/slog"
	"time"

	"github.com/aegisgw/smsgateway/message"
)

// Options configures a Gateway (§6 "create(options)"). Zero-valued fields
// take the documented default, except MaxTransmitAttempts (see below).
type Options struct {
	// GammuJSONPath is the gammu-json executable to spawn. Resolved via
	// PATH if not absolute. Defaults to "gammu-json".
	GammuJSONPath string

	// Interval is the poll period, measured from the end of one tick to the
	// start of the next. Default 5s.
	Interval time.Duration

	// TransmitBatchSize bounds the send() argv per tick; the usable batch
	// is TransmitBatchSize-1 items (§9 open question, preserved literally).
	// Default 64.
	TransmitBatchSize int

	// DeleteBatchSize bounds the delete() argv per tick; the usable batch
	// is DeleteBatchSize-1 locations. Default 1024.
	DeleteBatchSize int

	// MaxTransmitAttempts caps tx_attempts before abandoning an outbound
	// item; 0 means unlimited. Default 2, applied to a negative value and
	// to a zero value only when every other field of Options is also zero.
	MaxTransmitAttempts int

	// Debug enables verbose diagnostic logging.
	Debug bool

	// Prefix, if set, prepends "<prefix>/bin" to the PATH used when
	// spawning gammu-json.
	Prefix string

	// Logger, if non-nil, overrides the default slog logger.
	Logger *slog.Logger

	// Store, if non-nil, is used instead of the built-in in-memory
	// segment cache for receive_segment/return_segments/release_segments.
	Store message.Store
}

const (
	defaultInterval            = 5 * time.Second
	defaultTransmitBatchSize   = 64
	defaultDeleteBatchSize     = 1024
	defaultMaxTransmitAttempts = 2
	defaultGammuJSONPath       = "gammu-json"
)

func (o Options) withDefaults() Options {
	untouched := o == Options{}

	if o.Interval <= 0 {
		o.Interval = defaultInterval
	}
	if o.TransmitBatchSize <= 0 {
		o.TransmitBatchSize = defaultTransmitBatchSize
	}
	if o.DeleteBatchSize <= 0 {
		o.DeleteBatchSize = defaultDeleteBatchSize
	}
	switch {
	case o.MaxTransmitAttempts < 0:
		o.MaxTransmitAttempts = defaultMaxTransmitAttempts
	case o.MaxTransmitAttempts == 0 && untouched:
		// Options{} means "all documented defaults", MaxTransmitAttempts
		// included; an explicit 0 on an otherwise-populated Options still
		// means unlimited.
		o.MaxTransmitAttempts = defaultMaxTransmitAttempts
	}
	if o.GammuJSONPath == "" {
		o.GammuJSONPath = defaultGammuJSONPath
	}
	return o
}
