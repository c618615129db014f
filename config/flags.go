package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

// Version is reported by --version.
const Version = "0.1.0"

// ErrHelp is returned by Load when help or version output was requested.
var ErrHelp = errors.New("help requested")

// Flags holds parsed command-line flags.
type Flags struct {
	// Commands
	Help    bool
	Version bool

	// Core
	Network string
	DataDir string
	Config  string

	// Node
	NodeURL     string
	NodeTimeout time.Duration

	// Sync
	Parallelism     int
	StrictFoundries bool

	// Retry
	RetryInterval    time.Duration
	RetryMaxAttempts int

	// Logging
	LogLevel string
	LogFile  string
	LogJSON  bool

	// Remaining args: the subcommand and its arguments.
	Args []string

	// Explicitly-set bool flags (for true/false overrides).
	SetStrictFoundries bool
	SetLogJSON         bool
}

// ParseFlags parses the global flags in args. Parsing stops at the first
// positional argument so subcommands can define their own flags.
func ParseFlags(args []string) (*Flags, error) {
	f := &Flags{}
	fs := flag.NewFlagSet("klingnet-ledger", flag.ContinueOnError)

	// Commands
	fs.BoolVar(&f.Help, "help", false, "Show help message")
	fs.BoolVar(&f.Help, "h", false, "Show help message (shorthand)")
	fs.BoolVar(&f.Version, "version", false, "Show version information")
	fs.BoolVar(&f.Version, "v", false, "Show version (shorthand)")

	// Core
	fs.StringVar(&f.Network, "network", "", "Network type (mainnet or testnet)")
	testnet := fs.Bool("testnet", false, "Use testnet (shorthand for --network=testnet)")
	fs.StringVar(&f.DataDir, "datadir", "", "Data directory path")
	fs.StringVar(&f.Config, "config", "", "Config file path")
	fs.StringVar(&f.Config, "c", "", "Config file path (shorthand)")

	// Node
	fs.StringVar(&f.NodeURL, "node", "", "Node REST endpoint")
	fs.DurationVar(&f.NodeTimeout, "node-timeout", 0, "Node request timeout")

	// Sync
	fs.IntVar(&f.Parallelism, "parallelism", 0, "Concurrent output fetches during sync")
	fs.BoolVar(&f.StrictFoundries, "strict-foundries", false, "Fail sync on unknown foundries")

	// Retry
	fs.DurationVar(&f.RetryInterval, "retry-interval", 0, "Delay between inclusion checks")
	fs.IntVar(&f.RetryMaxAttempts, "retry-attempts", 0, "Inclusion checks before giving up")

	// Logging
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "Output logs as JSON")

	fs.Usage = func() {}
	fs.SetOutput(os.Stderr)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			f.Help = true
			return f, nil
		}
		return nil, err
	}

	if *testnet {
		f.Network = string(Testnet)
	}
	f.SetStrictFoundries = isFlagSet(fs, "strict-foundries")
	f.SetLogJSON = isFlagSet(fs, "log-json")
	f.Args = fs.Args()

	return f, nil
}

// ApplyFlags applies command-line flags to a Config struct.
func ApplyFlags(cfg *Config, f *Flags) {
	// Core
	if f.Network != "" {
		cfg.Network = NetworkType(strings.ToLower(f.Network))
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}

	// Node
	if f.NodeURL != "" {
		cfg.Node.URL = f.NodeURL
	}
	if f.NodeTimeout != 0 {
		cfg.Node.Timeout = f.NodeTimeout
	}

	// Sync
	if f.Parallelism != 0 {
		cfg.Sync.Parallelism = f.Parallelism
	}
	if f.SetStrictFoundries {
		cfg.Sync.StrictFoundryLookups = f.StrictFoundries
	}

	// Retry
	if f.RetryInterval != 0 {
		cfg.Retry.Interval = f.RetryInterval
	}
	if f.RetryMaxAttempts != 0 {
		cfg.Retry.MaxAttempts = f.RetryMaxAttempts
	}

	// Logging
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	if f.SetLogJSON {
		cfg.Log.JSON = f.LogJSON
	}
}

// isFlagSet checks if a flag was explicitly set.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// PrintUsage writes the global usage text.
func PrintUsage() {
	usage := `Klingnet Ledger - Stardust UTXO wallet

Usage:
  <host> [global options] [arguments]

Core Options:
  --network       Network type: mainnet (default) or testnet
  --testnet       Shorthand for --network=testnet
  --datadir       Data directory (default: ~/.klingnet-ledger)
  --config, -c    Config file path (default: <datadir>/ledger.conf)

Node Options:
  --node          Node REST endpoint
  --node-timeout  Per-request timeout (e.g. 30s)

Sync Options:
  --parallelism       Concurrent output fetches (default: 8)
  --strict-foundries  Fail sync when a referenced foundry is unknown

Retry Options:
  --retry-interval  Delay between inclusion checks (default: 5s)
  --retry-attempts  Inclusion checks before giving up (default: 40)

Logging Options:
  --log-level     Log level: trace, debug, info, warn, error (default: info)
  --log-file      Log file path (default: <datadir>/logs/ledger.log)
  --log-json      Output logs as JSON

`
	fmt.Print(usage)
}

// Load loads configuration with the following precedence:
// 1. Default values
// 2. Auto-create data dirs + default config (idempotent)
// 3. Config file
// 4. Command-line flags
func Load(args []string) (*Config, *Flags, error) {
	flags, err := ParseFlags(args)
	if err != nil {
		return nil, nil, err
	}

	if flags.Help {
		PrintUsage()
		return nil, flags, ErrHelp
	}
	if flags.Version {
		fmt.Println("klingnet-ledger version " + Version)
		return nil, flags, ErrHelp
	}

	// Determine network first (needed for defaults)
	network := Mainnet
	if strings.ToLower(flags.Network) == string(Testnet) {
		network = Testnet
	}

	cfg := Default(network)
	if flags.DataDir != "" {
		cfg.DataDir = flags.DataDir
	}

	// Auto-create data directories and default config on first start.
	if err := EnsureDataDirs(cfg); err != nil {
		return nil, nil, fmt.Errorf("ensuring data dirs: %w", err)
	}

	configPath := flags.Config
	if configPath == "" {
		configPath = cfg.ConfigFile()
	}
	if err := LoadInto(cfg, configPath); err != nil {
		return nil, nil, err
	}

	// Apply flags (highest precedence)
	ApplyFlags(cfg, flags)
	if err := Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, flags, nil
}

// LoadFromFile loads config from defaults + conf file only (no CLI flags).
func LoadFromFile(dataDir string, network NetworkType) (*Config, error) {
	cfg := Default(network)
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if err := EnsureDataDirs(cfg); err != nil {
		return nil, fmt.Errorf("ensuring data dirs: %w", err)
	}
	if err := LoadInto(cfg, cfg.ConfigFile()); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadInto applies the values of the config file at path to cfg.
func LoadInto(cfg *Config, path string) error {
	fileValues, err := LoadFile(path)
	if err != nil {
		return fmt.Errorf("loading config file: %w", err)
	}
	if err := ApplyFileConfig(cfg, fileValues); err != nil {
		return fmt.Errorf("applying config file: %w", err)
	}
	return nil
}

// EnsureDataDirs creates the data directory structure and a default config
// file if they don't already exist. Calling it again is a no-op.
func EnsureDataDirs(cfg *Config) error {
	dirs := []string{
		cfg.DataDir,
		cfg.NetworkDir(),
		cfg.DBDir(),
		cfg.LogsDir(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	// Create default config if it doesn't exist.
	configPath := cfg.ConfigFile()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := WriteDefaultConfig(configPath, cfg.Network); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}
	}

	return nil
}
