// Package config loads go-spaark-utils settings from a YAML file and the
// environment.
//
// Every key can be overridden by an environment variable named after the key
// with the SPAARK_ prefix, upper-cased, with dots replaced by underscores:
// hashing.app_salt becomes SPAARK_HASHING_APP_SALT.
package config

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hasbyte1/go-spaark-utils/hashing"
	"github.com/hasbyte1/go-spaark-utils/log"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "SPAARK"

// Base64Prefix marks a secret stored as base64, as in "base64:c2VjcmV0".
const Base64Prefix = "base64:"

var (
	// ErrInvalidConfig is wrapped by every validation failure.
	ErrInvalidConfig = errors.New("config: invalid configuration")

	// ErrConfigTypeRequired is returned by LoadFromBytes for an empty type.
	ErrConfigTypeRequired = errors.New("config: config type is required")
)

// Config holds all settings.
type Config struct {
	Hashing HashingConfig
	Logger  LoggerConfig
}

// HashingConfig configures the hashing drivers and the manager default.
type HashingConfig struct {
	// AppSalt is the Spaark application salt. It doubles as the Argon2 pepper.
	// A value starting with [Base64Prefix] is decoded first.
	AppSalt  string `validate:"required"`
	Strength int    `validate:"min=4,max=31"`
	Driver   string `validate:"oneof=spaark argon2i argon2id"`
	Argon2   Argon2Config
}

// Argon2Config holds the Argon2 cost parameters.
type Argon2Config struct {
	Memory  uint32 `validate:"min=8"`
	Time    uint32 `validate:"min=1"`
	Threads uint   `validate:"min=1,max=255"`
	KeyLen  uint32 `validate:"min=4"`
	SaltLen uint32 `validate:"min=8"`
}

// LoggerConfig is the configuration for the logger
type LoggerConfig struct {
	Level        string
	Mode         string `validate:"omitempty,oneof=production development debug"`
	Encoding     string `validate:"omitempty,oneof=json console"`
	ColorEnabled bool
}

// Load reads the YAML file at path, applies environment overrides and
// validates the result. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	return build(v)
}

// LoadFromBytes is Load for in-memory configuration. configType is any format
// viper understands ("yaml", "json", "toml").
func LoadFromBytes(configType string, data []byte) (*Config, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, ErrConfigTypeRequired
	}
	v := newViper()
	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", configType, err)
	}
	return build(v)
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
	// Hashing
	v.SetDefault("hashing.app_salt", "")
	v.SetDefault("hashing.strength", hashing.DefaultSpaarkStrength)
	v.SetDefault("hashing.driver", string(hashing.DriverArgon2id))

	// Argon2
	v.SetDefault("hashing.argon2.memory", hashing.DefaultArgon2Memory)
	v.SetDefault("hashing.argon2.time", hashing.DefaultArgon2Time)
	v.SetDefault("hashing.argon2.threads", hashing.DefaultArgon2Threads)
	v.SetDefault("hashing.argon2.key_len", hashing.DefaultArgon2KeyLen)
	v.SetDefault("hashing.argon2.salt_len", hashing.DefaultArgon2SaltLen)

	// Logger
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.mode", log.ModeProduction)
	v.SetDefault("logger.encoding", log.EncodingConsole)
	v.SetDefault("logger.color_enabled", false)
}

func build(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	cfg.Hashing.AppSalt = v.GetString("hashing.app_salt")
	cfg.Hashing.Strength = v.GetInt("hashing.strength")
	cfg.Hashing.Driver = strings.ToLower(v.GetString("hashing.driver"))

	cfg.Hashing.Argon2.Memory = v.GetUint32("hashing.argon2.memory")
	cfg.Hashing.Argon2.Time = v.GetUint32("hashing.argon2.time")
	cfg.Hashing.Argon2.Threads = v.GetUint("hashing.argon2.threads")
	cfg.Hashing.Argon2.KeyLen = v.GetUint32("hashing.argon2.key_len")
	cfg.Hashing.Argon2.SaltLen = v.GetUint32("hashing.argon2.salt_len")

	cfg.Logger.Level = v.GetString("logger.level")
	cfg.Logger.Mode = strings.ToLower(v.GetString("logger.mode"))
	cfg.Logger.Encoding = strings.ToLower(v.GetString("logger.encoding"))
	cfg.Logger.ColorEnabled = v.GetBool("logger.color_enabled")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field ranges and the cross-field Argon2 constraints.
// Failures wrap [ErrInvalidConfig].
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
	}

	if _, err := DecodeSecret(c.Hashing.AppSalt); err != nil {
		return fmt.Errorf("%w: hashing.app_salt: %w", ErrInvalidConfig, err)
	}
	if _, err := hashing.NewArgon2idHasher(c.Hashing.Argon2Options()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// DecodeSecret returns the bytes of a configured secret. Values with
// [Base64Prefix] are decoded with the standard or the URL-safe alphabet;
// anything else is used verbatim.
func DecodeSecret(s string) ([]byte, error) {
	encoded, ok := strings.CutPrefix(s, Base64Prefix)
	if !ok {
		return []byte(s), nil
	}
	b, err := base64.StdEncoding.DecodeString(encoded)
	if err == nil {
		return b, nil
	}
	b, err = base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("config: decode secret: %w", err)
	}
	return b, nil
}

// GenerateSecret returns n random bytes encoded as a "base64:" secret.
func GenerateSecret(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("config: secret length must be positive, got %d", n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", fmt.Errorf("config: generate secret: %w", err)
	}
	return Base64Prefix + base64.StdEncoding.EncodeToString(b), nil
}

// appSalt returns the decoded application salt. Validate has already
// rejected undecodable values on loaded configurations.
func (h HashingConfig) appSalt() []byte {
	b, err := DecodeSecret(h.AppSalt)
	if err != nil {
		return []byte(h.AppSalt)
	}
	return b
}

// ZapConfig converts the logger settings for [log.Init].
func (l LoggerConfig) ZapConfig() log.ZapConfig {
	return log.ZapConfig{
		Level:        l.Level,
		Mode:         l.Mode,
		Encoding:     l.Encoding,
		ColorEnabled: l.ColorEnabled,
	}
}

// Argon2Options returns the Argon2 driver options with AppSalt as pepper.
func (h HashingConfig) Argon2Options() hashing.Argon2Options {
	return hashing.Argon2Options{
		Memory:  h.Argon2.Memory,
		Time:    h.Argon2.Time,
		Threads: uint8(h.Argon2.Threads),
		KeyLen:  h.Argon2.KeyLen,
		SaltLen: h.Argon2.SaltLen,
		Pepper:  h.appSalt(),
	}
}

// SpaarkOptions returns the Spaark driver options.
func (h HashingConfig) SpaarkOptions() hashing.SpaarkOptions {
	return hashing.SpaarkOptions{
		AppSalt:  h.appSalt(),
		Strength: h.Strength,
	}
}

// NewManager builds a manager with every built-in driver registered and
// Driver as the default.
func (h HashingConfig) NewManager(logger *zap.Logger) (*hashing.Manager, error) {
	if _, err := DecodeSecret(h.AppSalt); err != nil {
		return nil, fmt.Errorf("config: hashing.app_salt: %w", err)
	}
	spaarkH, err := hashing.NewSpaarkHasher(h.SpaarkOptions())
	if err != nil {
		return nil, fmt.Errorf("config: spaark driver: %w", err)
	}
	argon2iH, err := hashing.NewArgon2iHasher(h.Argon2Options())
	if err != nil {
		return nil, fmt.Errorf("config: argon2i driver: %w", err)
	}
	argon2idH, err := hashing.NewArgon2idHasher(h.Argon2Options())
	if err != nil {
		return nil, fmt.Errorf("config: argon2id driver: %w", err)
	}

	m := hashing.NewManager(hashing.DriverName(h.Driver), hashing.WithLogger(logger))
	for name, drv := range map[hashing.DriverName]hashing.Hasher{
		hashing.DriverSpaark:   spaarkH,
		hashing.DriverArgon2i:  argon2iH,
		hashing.DriverArgon2id: argon2idH,
	} {
		if err := m.RegisterDriver(name, drv); err != nil {
			return nil, err
		}
	}
	if err := m.SetDefaultDriver(hashing.DriverName(h.Driver)); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return m, nil
}
