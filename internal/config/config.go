// Package config handles application configuration and command-line argument parsing.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alexflint/go-arg"
)

// PasswordEnvVar is consulted for the server password when the URL carries
// none, so credentials stay out of shell history and process listings.
const PasswordEnvVar = "CRYOFETCH_PASSWORD"

// Default tuning values, matched to what the CryoSat-2 science server
// tolerates.
const (
	DefaultWorkers         = 3
	DefaultSessions        = 3
	DefaultRetries         = 3
	DefaultRetryDelay      = 5 * time.Second
	DefaultConnectDelay    = 2 * time.Second
	DefaultTimeout         = 180 * time.Second
	DefaultMemoryThreshold = 90.0
)

// Date is a year/month pair in "YYYY-MM" form.
type Date struct {
	Year  int
	Month int
}

// String returns the date in its canonical "YYYY-MM" form.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d", d.Year, d.Month)
}

// ParseDate parses "YYYY-MM" (also accepting "YYYY/MM") into a Date.
func ParseDate(s string) (Date, error) {
	normalized := strings.ReplaceAll(s, "/", "-")

	parts := strings.Split(normalized, "-")
	if len(parts) != 2 {
		return Date{}, fmt.Errorf("invalid date %q (expected YYYY-MM)", s) //nolint:err113 // validation error with format guidance
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil || year < 2010 || year > 2100 {
		return Date{}, fmt.Errorf("invalid year in %q (expected YYYY-MM)", s) //nolint:err113 // validation error with format guidance
	}

	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return Date{}, fmt.Errorf("invalid month in %q (expected YYYY-MM)", s) //nolint:err113 // validation error with format guidance
	}

	return Date{Year: year, Month: month}, nil
}

// After reports whether d follows other.
func (d Date) After(other Date) bool {
	if d.Year != other.Year {
		return d.Year > other.Year
	}

	return d.Month > other.Month
}

// UnmarshalText implements encoding.TextUnmarshaler for go-arg
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}

	*d = parsed

	return nil
}

// Config holds the application configuration
type Config struct {
	ServerURL string `arg:"positional,required" help:"Server URL, e.g. ftp://science-pds.cryosat.esa.int/SIR_SAR_L2"`
	DestPath  string `arg:"-d,--dest" default:"." help:"Local directory downloads land under"`

	From Date `arg:"--from" default:"2020-08" help:"First month to retrieve (YYYY-MM)"`
	To   Date `arg:"--to" default:"2025-04" help:"Last month to retrieve (YYYY-MM)"`

	Pattern string `arg:"--pattern" default:"*.nc" help:"Glob pattern for files worth downloading"`

	Workers    int           `arg:"-w,--workers" default:"3" help:"Number of concurrent transfer workers"`
	Sessions   int           `arg:"--sessions" default:"3" help:"Maximum simultaneous server connections"`
	Retries    int           `arg:"--retries" default:"3" help:"Total transfer attempts per file"`
	RetryDelay time.Duration `arg:"--retry-delay" default:"5s" help:"Base delay between attempts (grows linearly)"`

	ConnectDelay time.Duration `arg:"--connect-delay" default:"2s" help:"Minimum spacing between new connections"`
	Timeout      time.Duration `arg:"--timeout" default:"180s" help:"Connection and command timeout"`

	MemoryThreshold float64 `arg:"--memory-threshold" default:"90" help:"Used-memory percent above which new transfers are vetoed"`
	VerifySizes     bool    `arg:"--verify-sizes" help:"Re-download existing files whose size differs from the server's"`

	Plain bool `arg:"--plain" help:"Line-based progress output instead of the full-screen UI"`
}

// Description returns the program description for go-arg
func (Config) Description() string {
	return "Bulk downloader for the CryoSat-2 SIR_SAR_L2 Antarctic archive with resumable, bounded-concurrency retrieval"
}

// Version returns the version string for go-arg
func (Config) Version() string {
	return "cryofetch 1.0.0"
}

// ParseFlags parses command-line flags and returns configuration
func ParseFlags() (*Config, error) {
	cfg := &Config{
		DestPath:        ".",
		From:            Date{Year: 2020, Month: 8},
		To:              Date{Year: 2025, Month: 4},
		Pattern:         "*.nc",
		Workers:         DefaultWorkers,
		Sessions:        DefaultSessions,
		Retries:         DefaultRetries,
		RetryDelay:      DefaultRetryDelay,
		ConnectDelay:    DefaultConnectDelay,
		Timeout:         DefaultTimeout,
		MemoryThreshold: DefaultMemoryThreshold,
	}

	arg.MustParse(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the parsed configuration for contradictions.
//
//nolint:cyclop // Flat sequence of independent validation checks
func (cfg *Config) Validate() error {
	if cfg.ServerURL == "" {
		return fmt.Errorf("server URL is required") //nolint:err113,perfsprint // validation error
	}

	if cfg.From.After(cfg.To) {
		return fmt.Errorf("--from %s is after --to %s", cfg.From, cfg.To) //nolint:err113 // validation error with actual values
	}

	if cfg.Workers <= 0 {
		return fmt.Errorf("--workers must be greater than 0, got %d", cfg.Workers) //nolint:err113 // validation error with actual value
	}

	if cfg.Sessions <= 0 {
		return fmt.Errorf("--sessions must be greater than 0, got %d", cfg.Sessions) //nolint:err113 // validation error with actual value
	}

	if cfg.Retries <= 0 {
		return fmt.Errorf("--retries must be greater than 0, got %d", cfg.Retries) //nolint:err113 // validation error with actual value
	}

	if cfg.MemoryThreshold <= 0 || cfg.MemoryThreshold > 100 {
		return fmt.Errorf("--memory-threshold must be in (0, 100], got %g", cfg.MemoryThreshold) //nolint:err113 // validation error with actual value
	}

	info, err := os.Stat(cfg.DestPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("destination path does not exist: %s", cfg.DestPath) //nolint:err113 // validation error with actual value
	}

	if err != nil {
		return fmt.Errorf("cannot access destination path: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("destination path is not a directory: %s", cfg.DestPath) //nolint:err113 // validation error with actual value
	}

	return nil
}
