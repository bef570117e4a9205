package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "MEETINGD"

type Config struct {
	DataDir  string
	DBPath   string
	Timezone string

	HTTP     HTTPConfig
	Log      LogConfig
	Lock     LockConfig
	Pace     PaceConfig
	Alert    AlertConfig
	Snapshot SnapshotConfig
	Cleanup  CleanupConfig
	OTel     OTelConfig
}

type HTTPConfig struct {
	Addr string
}

type LogConfig struct {
	Level  string
	Format string
}

type LockConfig struct {
	Backend string
	Redis   RedisConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// PaceConfig holds the deviation thresholds, in percent, used to classify meeting pace.
type PaceConfig struct {
	CriticalAbovePct float64
	BehindAbovePct   float64
	AheadBelowPct    float64
}

type AlertConfig struct {
	ThrottlePerOrgPerHour int
	ManifestPath          string
}

type SnapshotConfig struct {
	Store     string
	VaultPath string
}

type CleanupConfig struct {
	StaleAfter time.Duration
	Interval   time.Duration
}

type OTelConfig struct {
	Endpoint    string
	ServiceName string
}

// New returns the default configuration rooted at dataDir.
func New(dataDir string) (Config, error) {
	return Load("", dataDir)
}

// Load reads configuration from the optional file at path, then from
// MEETINGD_* environment variables, on top of defaults rooted at dataDir.
// Without an explicit path, meetingd.{yaml,toml,json} in dataDir is used when present.
func Load(path, dataDir string) (Config, error) {
	if strings.TrimSpace(dataDir) == "" {
		return Config{}, fmt.Errorf("data dir is required")
	}
	v := viper.New()
	setDefaults(v, dataDir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("meetingd")
		v.AddConfigPath(dataDir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return fromViper(v)
}

func setDefaults(v *viper.Viper, dataDir string) {
	v.SetDefault("data_dir", dataDir)
	v.SetDefault("db_path", filepath.Join(dataDir, ".meetingd", "meetingd.db"))
	v.SetDefault("timezone", "Local")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("lock.backend", "memory")
	v.SetDefault("lock.redis.addr", "")
	v.SetDefault("lock.redis.password", "")
	v.SetDefault("lock.redis.db", 0)
	v.SetDefault("lock.redis.prefix", "meetingd:lock")
	v.SetDefault("lock.redis.ttl", 10*time.Second)
	v.SetDefault("pace.critical_above_pct", 20.0)
	v.SetDefault("pace.behind_above_pct", 10.0)
	v.SetDefault("pace.ahead_below_pct", -5.0)
	v.SetDefault("alert.throttle_per_org_per_hour", 5)
	v.SetDefault("alert.manifest_path", filepath.Join(dataDir, "alerts", "sinks.yaml"))
	v.SetDefault("snapshot.store", "sqlite")
	v.SetDefault("snapshot.vault_path", dataDir)
	v.SetDefault("cleanup.stale_after", 8*time.Hour)
	v.SetDefault("cleanup.interval", time.Hour)
	v.SetDefault("otel.endpoint", "")
	v.SetDefault("otel.service_name", "meetingd")
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		DataDir:  v.GetString("data_dir"),
		DBPath:   v.GetString("db_path"),
		Timezone: v.GetString("timezone"),
		HTTP:     HTTPConfig{Addr: v.GetString("http.addr")},
		Log:      LogConfig{Level: v.GetString("log.level"), Format: v.GetString("log.format")},
		Lock: LockConfig{
			Backend: strings.ToLower(v.GetString("lock.backend")),
			Redis: RedisConfig{
				Addr:     v.GetString("lock.redis.addr"),
				Password: v.GetString("lock.redis.password"),
				DB:       v.GetInt("lock.redis.db"),
				Prefix:   v.GetString("lock.redis.prefix"),
				TTL:      v.GetDuration("lock.redis.ttl"),
			},
		},
		Pace: PaceConfig{
			CriticalAbovePct: v.GetFloat64("pace.critical_above_pct"),
			BehindAbovePct:   v.GetFloat64("pace.behind_above_pct"),
			AheadBelowPct:    v.GetFloat64("pace.ahead_below_pct"),
		},
		Alert: AlertConfig{
			ThrottlePerOrgPerHour: v.GetInt("alert.throttle_per_org_per_hour"),
			ManifestPath:          v.GetString("alert.manifest_path"),
		},
		Snapshot: SnapshotConfig{
			Store:     strings.ToLower(v.GetString("snapshot.store")),
			VaultPath: v.GetString("snapshot.vault_path"),
		},
		Cleanup: CleanupConfig{
			StaleAfter: v.GetDuration("cleanup.stale_after"),
			Interval:   v.GetDuration("cleanup.interval"),
		},
		OTel: OTelConfig{
			Endpoint:    v.GetString("otel.endpoint"),
			ServiceName: v.GetString("otel.service_name"),
		},
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Lock.Backend {
	case "memory":
	case "redis":
		if c.Lock.Redis.Addr == "" {
			return fmt.Errorf("lock.redis.addr is required for the redis lock backend")
		}
	default:
		return fmt.Errorf("unknown lock backend: %s", c.Lock.Backend)
	}
	switch c.Snapshot.Store {
	case "sqlite", "vault":
	default:
		return fmt.Errorf("unknown snapshot store: %s", c.Snapshot.Store)
	}
	if c.Pace.CriticalAbovePct < c.Pace.BehindAbovePct {
		return fmt.Errorf("pace.critical_above_pct must not be below pace.behind_above_pct")
	}
	if c.Pace.AheadBelowPct > c.Pace.BehindAbovePct {
		return fmt.Errorf("pace.ahead_below_pct must not exceed pace.behind_above_pct")
	}
	if c.Alert.ThrottlePerOrgPerHour <= 0 {
		return fmt.Errorf("alert.throttle_per_org_per_hour must be positive")
	}
	if c.Cleanup.StaleAfter <= 0 {
		return fmt.Errorf("cleanup.stale_after must be positive")
	}
	return nil
}

// Location resolves Timezone; "Local" or empty selects the process zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", c.Timezone, err)
	}
	return loc, nil
}
