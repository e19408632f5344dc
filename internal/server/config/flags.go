package config

import (
	"flag"
	"os"
	"time"

	"github.com/tauschring/kontor/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   PostgreSQL DSN
//	-k string   system sink user code
//	-f int      monthly membership fee, minutes
//	-m int      demurrage threshold, minutes
//	-w int      fee sweep interval, hours
//	-i int      demurrage run interval, hours
//	-n int      max automatic transfer retries on conflict
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Interval flags are accepted as integers in hours and then converted
//     to time.Duration values.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-k", "-f", "-m", "-w", "-i", "-n"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SystemSinkCode, "k", config.SystemSinkCode, "system sink user code")
	fs.Int64Var(&config.MonthlyFeeMinutes, "f", config.MonthlyFeeMinutes, "monthly membership fee (in minutes)")
	fs.Int64Var(&config.DemurrageThresholdMinutes, "m", config.DemurrageThresholdMinutes, "demurrage threshold (in minutes)")

	feeSweepInterval := fs.Int("w", int(config.FeeSweepInterval.Hours()), "fee sweep interval (in hours)")
	demurrageInterval := fs.Int("i", int(config.DemurrageInterval.Hours()), "demurrage interval (in hours)")

	fs.Uint64Var(&config.TransferMaxRetries, "n", config.TransferMaxRetries, "max transfer retries on conflict")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.FeeSweepInterval = time.Duration(*feeSweepInterval) * time.Hour
	config.DemurrageInterval = time.Duration(*demurrageInterval) * time.Hour
}
