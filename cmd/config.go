package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/tablestat/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set tablestat configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		fmt.Fprintf(out, "driver: %s\n", cfg.Driver)
		if strings.ToLower(cfg.Driver) != "sqlite" {
			fmt.Fprintf(out, "host: %s\n", cfg.Host)
			fmt.Fprintf(out, "port: %d\n", cfg.Port)
			fmt.Fprintf(out, "user: %s\n", cfg.User)
			fmt.Fprintf(out, "password: %s\n", mask(cfg.Password))
			fmt.Fprintf(out, "sslmode: %s\n", cfg.SSLMode)
		}
		fmt.Fprintf(out, "database: %s\n", cfg.Database)
		fmt.Fprintf(out, "query_timeout_sec: %d\n", cfg.QueryTimeoutSec)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "driver":
			switch strings.ToLower(val) {
			case "postgres", "postgresql", "pgx":
				cfg.Driver = "postgres"
			case "sqlite", "sqlite3":
				cfg.Driver = "sqlite"
			default:
				return fmt.Errorf("invalid driver: %s (use postgres or sqlite)", val)
			}
		case "host":
			cfg.Host = val
		case "port":
			i, err := strconv.Atoi(val)
			if err != nil || i <= 0 || i > 65535 {
				return fmt.Errorf("invalid port: %v", val)
			}
			cfg.Port = i
		case "database":
			cfg.Database = val
		case "user":
			cfg.User = val
		case "password":
			cfg.Password = val
		case "sslmode":
			cfg.SSLMode = val
		case "query_timeout_sec":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for query_timeout_sec: %v", val)
			}
			cfg.QueryTimeoutSec = i
		default:
			return fmt.Errorf("unknown key: %s (valid: %s)", key, strings.Join(cfgpkg.Keys, ", "))
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
