package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Data locations
	StorePath  string `long:"store" env:"STORE_PATH" default:"./data/activities.json" description:"Path to the canonical activities JSON store"`
	PolicyPath string `long:"policy" env:"POLICY_PATH" default:"./policy.yml" description:"Path to the reconciliation policy file (defaults are used if missing)"`
	SheetPath  string `long:"sheet" env:"SHEET_PATH" default:"./data/activities.xlsx" description:"Path to the spreadsheet mirror"`
	DropDir    string `long:"drop-dir" env:"DROP_DIR" default:"./data/incoming" description:"Directory watched for uploaded spreadsheets"`
	DBPath     string `long:"db" env:"DB_PATH" default:"./data/activity-comb.db" description:"Path to the sqlite audit database"`

	// Application configuration
	Port              string  `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl           string  `long:"base-url" env:"BASE_URL" description:"Public base URL for the service"`
	WorkerCount       int     `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background workers for task processing"`
	SchedulerInterval int     `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"0" description:"Interval in seconds between scheduled reconciliation passes (0 disables)"`
	APIAccessKey      string  `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	FlexThreshold     float64 `long:"flex-threshold" env:"FLEX_THRESHOLD" default:"0" description:"Override for the flexible-time span threshold in hours (0 uses the policy value)"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Asia/Bangkok)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		StorePath:         raw.StorePath,
		PolicyPath:        raw.PolicyPath,
		SheetPath:         raw.SheetPath,
		DropDir:           raw.DropDir,
		DBPath:            raw.DBPath,
		Port:              raw.Port,
		BaseUrl:           raw.BaseUrl,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		APIAccessKey:      raw.APIAccessKey,
		FlexThreshold:     raw.FlexThreshold,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set replaces the global configuration. Intended for tests.
func Set(c *Cfg) {
	globalCfg = c
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
