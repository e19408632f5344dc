package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/tauschring/kontor/internal/flagx"
	"github.com/tauschring/kontor/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "720h" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its fields are copied into
// the runtime Config struct which uses time.Duration.
type JsonConfig struct {
	DatabaseDSN               string         `json:"database_dsn"`
	SystemSinkCode            string         `json:"system_sink_code"`
	MonthlyFeeMinutes         int64          `json:"monthly_fee_minutes"`
	DemurrageThresholdMinutes int64          `json:"demurrage_threshold_minutes"`
	DemurrageRateAnnual       float64        `json:"demurrage_rate_annual"`
	FeeSweepInterval          timex.Duration `json:"fee_sweep_interval"`
	DemurrageInterval         timex.Duration `json:"demurrage_interval"`
	TransferMaxRetries        uint64         `json:"transfer_max_retries"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The JSON file path is taken from the -c or -config command-line flags;
// if neither is set, no JSON file is loaded. If the file cannot be read
// or contains invalid JSON, the function panics.
//
// The caller is expected to merge these values with defaults and
// command-line flags as part of the full configuration process.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.DatabaseDSN = c.DatabaseDSN
	config.SystemSinkCode = c.SystemSinkCode
	config.MonthlyFeeMinutes = c.MonthlyFeeMinutes
	config.DemurrageThresholdMinutes = c.DemurrageThresholdMinutes
	config.DemurrageRateAnnual = c.DemurrageRateAnnual
	config.FeeSweepInterval = time.Duration(c.FeeSweepInterval.Duration)
	config.DemurrageInterval = time.Duration(c.DemurrageInterval.Duration)
	config.TransferMaxRetries = c.TransferMaxRetries
}
