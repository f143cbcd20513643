// Package config loads application configuration from a YAML file with
// MIETWERK_* environment overrides.
package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Env      string `mapstructure:"env"`
		Timezone string `mapstructure:"timezone"`
		LogLevel string `mapstructure:"log_level"`
	} `mapstructure:"app"`

	Postgres struct {
		DSN      string `mapstructure:"dsn"`
		MaxConns int32  `mapstructure:"max_conns"`
		MinConns int32  `mapstructure:"min_conns"`
	} `mapstructure:"postgres"`

	Metrics struct {
		Enabled bool   `mapstructure:"enabled"`
		Addr    string `mapstructure:"addr"`
	} `mapstructure:"metrics"`

	Backup struct {
		Dir      string        `mapstructure:"dir"`
		Interval time.Duration `mapstructure:"interval"`
		Keep     int           `mapstructure:"keep"`
	} `mapstructure:"backup"`

	Meters struct {
		// DisableHierarchyChecks turns the sub-meter hierarchy
		// validation off globally (operator debug switch).
		DisableHierarchyChecks bool `mapstructure:"disable_hierarchy_checks"`
	} `mapstructure:"meters"`
}

func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("MIETWERK")
	v.AutomaticEnv()

	v.SetDefault("app.env", "development")
	v.SetDefault("app.timezone", "Europe/Berlin")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("postgres.max_conns", 25)
	v.SetDefault("postgres.min_conns", 5)
	v.SetDefault("metrics.addr", ":9091")
	v.SetDefault("backup.dir", "backups")
	v.SetDefault("backup.interval", 24*time.Hour)
	v.SetDefault("backup.keep", 14)

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}
