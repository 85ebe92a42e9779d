package config

import (
	"bytes"
	"encoding/base64"
	"errors"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides: modules.otp.cooldown_seconds is
// read from OTPGATE_MODULES_OTP_COOLDOWN_SECONDS.
const EnvPrefix = "OTPGATE"

// ErrConfigTypeRequired is returned by NewViperFromBytes without a type.
var ErrConfigTypeRequired = errors.New("config: config type is required")

// Viper is a Config backed by spf13/viper.
type Viper struct {
	v *viper.Viper
}

// NewViper loads the file at pathFile and reloads it when it changes.
func NewViper(pathFile string) (*Viper, error) {
	v := newViper()

	filename := path.Base(pathFile)
	v.AddConfigPath(path.Dir(pathFile))
	v.SetConfigName(strings.TrimSuffix(filename, path.Ext(filename)))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		slog.Info("config reloaded", "path", pathFile, "op", e.Op.String())
	})
	v.WatchConfig()

	return &Viper{v: v}, nil
}

// NewViperFromBytes loads configuration of configType ("yaml", "json", ...) from data.
func NewViperFromBytes(configType string, data []byte) (*Viper, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, ErrConfigTypeRequired
	}

	v := newViper()
	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	return &Viper{v: v}, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.server.address", ":8080")
	v.SetDefault("app.server.max_goroutine", 1000)
	v.SetDefault("jwt.ttl_minutes", 15)
	v.SetDefault("jwt.leeway_seconds", 5)
	v.SetDefault("hash.password.algorithm", "argon2id")
	v.SetDefault("hash.argon2id.max_concurrent", 4)
	v.SetDefault("hash.bcrypt.cost", 12)
	v.SetDefault("mail.driver", "smtp")
	v.SetDefault("messaging.driver", "memory")
	v.SetDefault("modules.otp.max_attempts", 5)
	v.SetDefault("modules.otp.cooldown_seconds", 60)
	v.SetDefault("modules.otp.consumed_retention_seconds", 5)
	v.SetDefault("modules.otp.notifier_timeout_seconds", 5)
	v.SetDefault("modules.otp.janitor.interval_seconds", 60)
	v.SetDefault("modules.otp.stats_url_expiry_minutes", 15)
	v.SetDefault("modules.identity.session_ttl_days", 7)
	v.SetDefault("modules.order.delivery_estimate_days", 7)
}

// GetInt returns the value for key as int.
func (vc *Viper) GetInt(key string) int { return vc.v.GetInt(key) }

// GetInt64 returns the value for key as int64.
func (vc *Viper) GetInt64(key string) int64 { return vc.v.GetInt64(key) }

// GetFloat64 returns the value for key as float64.
func (vc *Viper) GetFloat64(key string) float64 { return vc.v.GetFloat64(key) }

// GetBool returns the value for key as bool.
func (vc *Viper) GetBool(key string) bool { return vc.v.GetBool(key) }

// GetString returns the value for key as string.
func (vc *Viper) GetString(key string) string { return vc.v.GetString(key) }

// GetSecond returns the value for key as seconds.
func (vc *Viper) GetSecond(key string) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * time.Second
}

// GetMinute returns the value for key as minutes.
func (vc *Viper) GetMinute(key string) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * time.Minute
}

// GetHour returns the value for key as hours.
func (vc *Viper) GetHour(key string) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * time.Hour
}

// GetDay returns the value for key as days (24h).
func (vc *Viper) GetDay(key string) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * 24 * time.Hour
}

// GetBinary returns the value for key decoded from base64, nil when invalid.
func (vc *Viper) GetBinary(key string) []byte {
	data, err := base64.StdEncoding.DecodeString(vc.v.GetString(key))
	if err != nil {
		return nil
	}
	return data
}

// GetArray returns the elements of a YAML list or a comma separated string.
func (vc *Viper) GetArray(key string) []string {
	var raw []string
	if list, ok := vc.v.Get(key).([]any); ok {
		raw = lo.Map(list, func(item any, _ int) string { return asString(item) })
	} else {
		raw = strings.Split(vc.v.GetString(key), ",")
	}

	return lo.Compact(lo.Map(raw, func(s string, _ int) string { return strings.TrimSpace(s) }))
}

// GetMap returns the value for key parsed from "k:v,k:v" pairs.
func (vc *Viper) GetMap(key string) map[string]string {
	m := make(map[string]string)
	for _, pair := range vc.GetArray(key) {
		if k, val, ok := strings.Cut(pair, ":"); ok {
			m[strings.TrimSpace(k)] = strings.TrimSpace(val)
		}
	}
	return m
}

// Close is a no-op.
func (vc *Viper) Close() error { return nil }

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
