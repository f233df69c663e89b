package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/tablestat/internal/config"
	"github.com/KaramelBytes/tablestat/internal/datasource"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	// Connection flags (override config if set)
	flagDriver   string
	flagHost     string
	flagPort     int
	flagDatabase string
	flagUser     string
	flagPassword string
	flagSSLMode  string

	// Loaded configuration
	cfg    *cfgpkg.Global
	cfgErr error
	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "tablestat",
	Short: "tablestat: trend, correlation and anomaly detection for a database table",
	Long: `tablestat reads a table from PostgreSQL (or SQLite), classifies its columns as numeric or
temporal from schema metadata, and reports upward trends, strongly correlated column pairs and
3-sigma outliers. Run without a subcommand to execute the built-in demonstration.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDemo(cmd)
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.tablestat/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagDriver, "driver", "", "database driver: postgres | sqlite (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagHost, "host", "", "database host (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagPort, "port", 0, "database port (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagDatabase, "database", "", "database name, or file path for sqlite (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagUser, "user", "", "database user (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagPassword, "password", "", "database password (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagSSLMode, "sslmode", "", "postgres sslmode (overrides config)")
}

func loadConfig() {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal here: commands that need a database report it.
		cfg, cfgErr = nil, err
		logger.Warn().Err(err).Msg("failed to load config")
		return
	}
	cfg, cfgErr = c, nil

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("driver") && flagDriver != "" {
		cfg.Driver = flagDriver
	}
	if f.Changed("host") && flagHost != "" {
		cfg.Host = flagHost
	}
	if f.Changed("port") && flagPort > 0 {
		cfg.Port = flagPort
	}
	if f.Changed("database") && flagDatabase != "" {
		cfg.Database = flagDatabase
	}
	if f.Changed("user") && flagUser != "" {
		cfg.User = flagUser
	}
	if f.Changed("password") {
		cfg.Password = flagPassword
	}
	if f.Changed("sslmode") && flagSSLMode != "" {
		cfg.SSLMode = flagSSLMode
	}
}

// openSource builds the data source from the effective configuration.
func openSource() (*datasource.Source, error) {
	if cfg == nil {
		if cfgErr != nil {
			return nil, fmt.Errorf("load config: %w", cfgErr)
		}
		return nil, fmt.Errorf("no configuration loaded")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return datasource.Open(cfg.DataSource(), logger)
}
