// Copyright AGNTCY Contributors (https://github.com/agntcy)
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	DefaultEnvPrefix = "DATASPACE_SERVER"

	DefaultDatabaseDSN      = "connector.db"
	DefaultBackendTimeout   = 30 * time.Second
	DefaultRetrieverTimeout = 30 * time.Second
	DefaultScanPeriod       = 60 * time.Second
)

// Framework selects the usage-control enforcement engine. The built-in
// scheduler only runs when the internal framework is configured.
type Framework string

const (
	FrameworkInternal Framework = "internal"
	FrameworkExternal Framework = "external"
)

type Config struct {
	Database     DatabaseConfig     `json:"database,omitempty"      mapstructure:"database"`
	Backend      BackendConfig      `json:"backend,omitempty"       mapstructure:"backend"`
	Retriever    RetrieverConfig    `json:"retriever,omitempty"     mapstructure:"retriever"`
	UsageControl UsageControlConfig `json:"usage_control,omitempty" mapstructure:"usage_control"`
}

type DatabaseConfig struct {
	// DSN of the sqlite database. ":memory:" is accepted for tests.
	DSN string `json:"dsn,omitempty" mapstructure:"dsn"`
}

type BackendConfig struct {
	Timeout time.Duration `json:"timeout,omitempty" mapstructure:"timeout"`
}

type RetrieverConfig struct {
	Timeout   time.Duration `json:"timeout,omitempty"    mapstructure:"timeout"`
	UserAgent string        `json:"user_agent,omitempty" mapstructure:"user_agent"`
}

type UsageControlConfig struct {
	Framework  Framework     `json:"framework,omitempty"    mapstructure:"framework"`
	ScanPeriod time.Duration `json:"scan_period,omitempty"  mapstructure:"scan_period"`

	// ConnectorID is this connector's identity, used as the requesting
	// connector for locally issued data accesses.
	ConnectorID string `json:"connector_id,omitempty" mapstructure:"connector_id"`
}

func LoadConfig() (*Config, error) {
	v := viper.NewWithOptions(
		viper.KeyDelimiter("."),
		viper.EnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_")),
	)

	v.SetEnvPrefix(DefaultEnvPrefix)
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	_ = v.BindEnv("database.dsn")
	v.SetDefault("database.dsn", DefaultDatabaseDSN)

	_ = v.BindEnv("backend.timeout")
	v.SetDefault("backend.timeout", DefaultBackendTimeout)

	_ = v.BindEnv("retriever.timeout")
	v.SetDefault("retriever.timeout", DefaultRetrieverTimeout)

	_ = v.BindEnv("retriever.user_agent")
	v.SetDefault("retriever.user_agent", "dataspace-connector")

	_ = v.BindEnv("usage_control.framework")
	v.SetDefault("usage_control.framework", string(FrameworkInternal))

	_ = v.BindEnv("usage_control.scan_period")
	v.SetDefault("usage_control.scan_period", DefaultScanPeriod)

	_ = v.BindEnv("usage_control.connector_id")
	v.SetDefault("usage_control.connector_id", "")

	// Load configuration into struct
	decodeHooks := mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)

	config := &Config{}
	if err := v.Unmarshal(config, viper.DecodeHook(decodeHooks)); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return config, nil
}
