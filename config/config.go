// Package config loads Options from the environment for embedders that
// prefer env-var configuration over constructing gateway.Options by hand.
// The core never calls this itself (§1: "process bootstrap ... is out of
// scope"); it is offered as a convenience the teacher's own cmd/ binaries
// used this way.
package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/aegisgw/smsgateway"
)

// EnvConfig mirrors gateway.Options with envconfig tags and durations
// expressed the way the shell sets them (seconds as plain durations).
type EnvConfig struct {
	GammuJSONPath       string        `envconfig:"GAMMU_JSON_PATH" default:"gammu-json"`
	Interval            time.Duration `envconfig:"POLL_INTERVAL" default:"5s"`
	TransmitBatchSize   int           `envconfig:"TRANSMIT_BATCH_SIZE" default:"64"`
	DeleteBatchSize     int           `envconfig:"DELETE_BATCH_SIZE" default:"1024"`
	MaxTransmitAttempts int           `envconfig:"MAX_TRANSMIT_ATTEMPTS" default:"2"`
	Debug               bool          `envconfig:"DEBUG" default:"false"`
	Prefix              string        `envconfig:"PREFIX"`
}

// FromEnv loads an EnvConfig from the process environment, first merging in
// a ".env" file if present. A missing ".env" is not an error.
func FromEnv() (EnvConfig, error) {
	var cfg EnvConfig

	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found, skipping: %v", err)
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToOptions maps an EnvConfig onto gateway.Options.
func (c EnvConfig) ToOptions() gateway.Options {
	return gateway.Options{
		GammuJSONPath:       c.GammuJSONPath,
		Interval:            c.Interval,
		TransmitBatchSize:   c.TransmitBatchSize,
		DeleteBatchSize:     c.DeleteBatchSize,
		MaxTransmitAttempts: c.MaxTransmitAttempts,
		Debug:               c.Debug,
		Prefix:              c.Prefix,
	}
}
