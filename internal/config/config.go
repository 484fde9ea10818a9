package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/KaramelBytes/metricdeck-cli/internal/filter"
	"github.com/KaramelBytes/metricdeck-cli/internal/ingest"
	"github.com/KaramelBytes/metricdeck-cli/internal/prepare"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	DatasetPath string `mapstructure:"dataset_path" yaml:"dataset_path"`
	SheetName   string `mapstructure:"sheet_name" yaml:"sheet_name"`
	SheetIndex  int    `mapstructure:"sheet_index" yaml:"sheet_index"`
	Delimiter   string `mapstructure:"delimiter" yaml:"delimiter"`
	// Decimal separator for numeric cells ("." or ","); empty auto-detects.
	DecimalSeparator string `mapstructure:"decimal_separator" yaml:"decimal_separator"`

	ColumnMap    map[string]string `mapstructure:"column_map" yaml:"column_map"`
	StatusMap    map[string]string `mapstructure:"status_map" yaml:"status_map"`
	TaxonomyPath string            `mapstructure:"taxonomy_path" yaml:"taxonomy_path"`

	CacheTTLSec int    `mapstructure:"cache_ttl_sec" yaml:"cache_ttl_sec"`
	ServerAddr  string `mapstructure:"server_addr" yaml:"server_addr"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`

	Defaults Defaults `mapstructure:"defaults" yaml:"defaults"`
}

// Defaults are the metric parameters used when a command does not override them.
type Defaults struct {
	DateFrom        string   `mapstructure:"date_from" yaml:"date_from"`
	DateTo          string   `mapstructure:"date_to" yaml:"date_to"`
	Channels        []string `mapstructure:"channels" yaml:"channels"`
	Sellers         []string `mapstructure:"sellers" yaml:"sellers"`
	Categories      []string `mapstructure:"categories" yaml:"categories"`
	TopN            int      `mapstructure:"top_n" yaml:"top_n"`
	IncludeCanceled bool     `mapstructure:"include_canceled" yaml:"include_canceled"`
	Expr            string   `mapstructure:"expr" yaml:"expr"`
}

// DefaultColumnMap maps the headers of the marketplace order export to
// canonical column names.
var DefaultColumnMap = map[string]string{
	"결제일":        prepare.OrderTimestamp,
	"주문일시":       prepare.OrderTimestamp,
	"판매채널":       prepare.Channel,
	"채널명":        prepare.Channel,
	"입점사명":       prepare.Seller,
	"업체명":        prepare.Seller,
	"상품 카테고리":    prepare.CategoryCode,
	"카테고리":       prepare.CategoryCode,
	"구매자명":       prepare.BuyerName,
	"구매자연락처":     prepare.BuyerPhone,
	"주문상태":       prepare.OrderStatus,
	"상품명":        prepare.ProductName,
	"상품주문번호":     prepare.OrderID,
	"클레임사유":      prepare.ClaimNote,
	"상품별 총 주문금액": prepare.LineAmount,
	"정산예정금액":     prepare.SettlementAmount,
	"수량":         prepare.Quantity,
	"판매가":        prepare.UnitPrice,
}

// DefaultStatusMap rewrites localized order states.
var DefaultStatusMap = map[string]string{
	"결제취소": prepare.StatusCanceled,
	"주문취소": prepare.StatusCanceled,
	"반품":   "returned",
	"반품완료": "returned",
	"교환":   "exchanged",
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".metricdeck"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.metricdeck/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := configDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("METRICDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("dataset_path", "")
	v.SetDefault("sheet_name", "")
	v.SetDefault("sheet_index", 1)
	v.SetDefault("delimiter", "")
	v.SetDefault("decimal_separator", "")
	v.SetDefault("column_map", DefaultColumnMap)
	v.SetDefault("status_map", DefaultStatusMap)
	v.SetDefault("taxonomy_path", "")
	v.SetDefault("cache_ttl_sec", 600)
	v.SetDefault("server_addr", "127.0.0.1:8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("defaults.date_from", "")
	v.SetDefault("defaults.date_to", "")
	v.SetDefault("defaults.channels", []string{})
	v.SetDefault("defaults.sellers", []string{})
	v.SetDefault("defaults.categories", []string{})
	v.SetDefault("defaults.top_n", 0)
	v.SetDefault("defaults.include_canceled", false)
	v.SetDefault("defaults.expr", "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read; a missing file is fine, a malformed one is not
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// CacheTTL is the snapshot lifetime of the HTTP shell.
func (c *Global) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSec) * time.Second
}

// IngestOptions returns reader options from the dataset keys.
func (c *Global) IngestOptions() ingest.Options {
	opt := ingest.Options{Sheet: c.SheetName, SheetIndex: c.SheetIndex}
	if r := []rune(c.Delimiter); len(r) == 1 {
		opt.Delimiter = r[0]
	} else if c.Delimiter == `\t` || strings.EqualFold(c.Delimiter, "tab") {
		opt.Delimiter = '\t'
	}
	return opt
}

// PrepareOptions returns the column and status mappings.
func (c *Global) PrepareOptions() prepare.Options {
	opt := prepare.Options{ColumnMap: c.ColumnMap, StatusMap: c.StatusMap}
	if r := []rune(c.DecimalSeparator); len(r) == 1 {
		opt.DecimalSeparator = r[0]
	}
	return opt
}

// Params converts the configured defaults to filter parameters.
func (c *Global) Params() (filter.Params, error) {
	d := c.Defaults
	from, err := filter.ParseDay(d.DateFrom, false)
	if err != nil {
		return filter.Params{}, fmt.Errorf("defaults.date_from: %w", err)
	}
	to, err := filter.ParseDay(d.DateTo, true)
	if err != nil {
		return filter.Params{}, fmt.Errorf("defaults.date_to: %w", err)
	}
	return filter.Params{
		DateFrom:        from,
		DateTo:          to,
		Channels:        d.Channels,
		Sellers:         d.Sellers,
		Categories:      d.Categories,
		TopN:            d.TopN,
		IncludeCanceled: d.IncludeCanceled,
		Expr:            d.Expr,
	}, nil
}
