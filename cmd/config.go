package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/metricdeck-cli/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set MetricDeck configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		b, err := yaml.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(b))
		return nil
	},
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the built-in defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		if !configInitForce && c.DatasetPath != "" {
			return fmt.Errorf("config already has dataset_path %q (use --force to overwrite)", c.DatasetPath)
		}
		if len(c.ColumnMap) == 0 {
			c.ColumnMap = cfgpkg.DefaultColumnMap
		}
		if len(c.StatusMap) == 0 {
			c.StatusMap = cfgpkg.DefaultStatusMap
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Wrote default config")
		return nil
	},
}

// setters assign one scalar config key from its string form.
var setters = map[string]func(c *cfgpkg.Global, v string) error{
	"dataset_path":      func(c *cfgpkg.Global, v string) error { c.DatasetPath = v; return nil },
	"sheet_name":        func(c *cfgpkg.Global, v string) error { c.SheetName = v; return nil },
	"sheet_index":       intSetter(func(c *cfgpkg.Global, i int) { c.SheetIndex = i }),
	"delimiter":         func(c *cfgpkg.Global, v string) error { c.Delimiter = v; return nil },
	"decimal_separator": func(c *cfgpkg.Global, v string) error { c.DecimalSeparator = v; return nil },
	"taxonomy_path":     func(c *cfgpkg.Global, v string) error { c.TaxonomyPath = v; return nil },
	"cache_ttl_sec":     intSetter(func(c *cfgpkg.Global, i int) { c.CacheTTLSec = i }),
	"server_addr":       func(c *cfgpkg.Global, v string) error { c.ServerAddr = v; return nil },
	"log_level": func(c *cfgpkg.Global, v string) error {
		switch strings.ToLower(v) {
		case "debug", "info", "warn", "error":
			c.LogLevel = strings.ToLower(v)
			return nil
		}
		return fmt.Errorf("invalid log_level: %s (use debug|info|warn|error)", v)
	},
	"defaults.date_from": func(c *cfgpkg.Global, v string) error { c.Defaults.DateFrom = v; return nil },
	"defaults.date_to":   func(c *cfgpkg.Global, v string) error { c.Defaults.DateTo = v; return nil },
	"defaults.channels":  func(c *cfgpkg.Global, v string) error { c.Defaults.Channels = splitList(v); return nil },
	"defaults.sellers":   func(c *cfgpkg.Global, v string) error { c.Defaults.Sellers = splitList(v); return nil },
	"defaults.categories": func(c *cfgpkg.Global, v string) error {
		c.Defaults.Categories = splitList(v)
		return nil
	},
	"defaults.top_n": intSetter(func(c *cfgpkg.Global, i int) { c.Defaults.TopN = i }),
	"defaults.include_canceled": func(c *cfgpkg.Global, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid bool for defaults.include_canceled: %v", v)
		}
		c.Defaults.IncludeCanceled = b
		return nil
	},
	"defaults.expr": func(c *cfgpkg.Global, v string) error { c.Defaults.Expr = v; return nil },
}

func intSetter(set func(c *cfgpkg.Global, i int)) func(c *cfgpkg.Global, v string) error {
	return func(c *cfgpkg.Global, v string) error {
		i, err := strconv.Atoi(v)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid non-negative int: %v", v)
		}
		set(c, i)
		return nil
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func settableKeys() string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		set, ok := setters[key]
		if !ok {
			return fmt.Errorf("unknown key: %s (settable: %s)", key, settableKeys())
		}
		if err := set(c, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
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
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing configuration")
}
