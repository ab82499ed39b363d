// Package config holds the immutable engine configuration and its loader.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"

	domainerrors "ulink/internal/domain/errors"
)

const (
	defaultPath               = "."
	defaultSessionWaitTimeout = 30 * time.Second
	defaultHTTPTimeout        = 15 * time.Second
)

// Config is supplied at engine construction and is immutable for the
// lifetime of the engine instance.
type Config struct {
	APIKey  string `json:"apiKey" yaml:"apiKey" validate:"required"`
	BaseURL string `json:"baseUrl" yaml:"baseUrl" validate:"required,url"`
	Debug   bool   `json:"debug" yaml:"debug"`

	Log Log `json:"log" yaml:"log"`

	// EnableDeepLinkIntegration turns on resolution of incoming URLs and
	// event publication after initialization.
	EnableDeepLinkIntegration bool `json:"enableDeepLinkIntegration" yaml:"enableDeepLinkIntegration"`

	// AutoCheckDeferredLink fires the one-shot deferred-link check after
	// the first successful bootstrap.
	AutoCheckDeferredLink bool `json:"autoCheckDeferredLink" yaml:"autoCheckDeferredLink"`

	// PersistLastLinkData writes the sanitized result of each handled
	// deep link to local storage.
	PersistLastLinkData bool `json:"persistLastLinkData" yaml:"persistLastLinkData"`

	// LastLinkTTL bounds the age of persisted last-link data. Zero means
	// no expiry.
	LastLinkTTL time.Duration `json:"lastLinkTTL" yaml:"lastLinkTTL"`

	// ClearLastLinkOnRead removes persisted last-link data after the
	// first successful load.
	ClearLastLinkOnRead bool `json:"clearLastLinkOnRead" yaml:"clearLastLinkOnRead"`

	// RedactAllParametersInLastLink strips parameters and metadata
	// entirely before persisting.
	RedactAllParametersInLastLink bool `json:"redactAllParametersInLastLink" yaml:"redactAllParametersInLastLink"`

	// RedactedParameterKeysInLastLink removes the listed keys from both
	// parameters and metadata before persisting.
	RedactedParameterKeysInLastLink []string `json:"redactedParameterKeysInLastLink" yaml:"redactedParameterKeysInLastLink"`

	// QRErrorCorrectionLevel selects QR code redundancy (L, M, Q, H).
	// Defaults to M.
	QRErrorCorrectionLevel string `json:"qrErrorCorrectionLevel" yaml:"qrErrorCorrectionLevel"`

	// SessionWaitTimeout bounds WaitForSession callers. Defaults to 30s.
	SessionWaitTimeout time.Duration `json:"sessionWaitTimeout" yaml:"sessionWaitTimeout"`

	// HTTPTimeout bounds each backend request. Defaults to 15s.
	HTTPTimeout time.Duration `json:"httpTimeout" yaml:"httpTimeout"`
}

// Log configures the SDK logger.
type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// Normalize fills defaults for unset optional fields.
func (cfg *Config) Normalize() {
	if cfg.SessionWaitTimeout <= 0 {
		cfg.SessionWaitTimeout = defaultSessionWaitTimeout
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = defaultHTTPTimeout
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
}

// Validate checks required fields and value shapes.
func (cfg *Config) Validate() error {
	if err := validator.New().Struct(cfg); err != nil {
		return errors.Wrap(domainerrors.ErrInvalidConfiguration, err.Error())
	}

	return nil
}

// LoadWithEnv loads a yaml config file through koanf, then applies
// environment variable overrides whose segments are aligned with the
// existing yaml keys (ULINK_LOG_LEVEL -> log.level).
func LoadWithEnv(name string, configPath ...string) (*Config, error) {
	cfg := new(Config)
	koanfInstance := koanf.New(".")

	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			searchPaths = append(searchPaths, filepath.Join(pwd, path))
		}
	}

	var configFile string
	var found bool
	for _, path := range searchPaths {
		candidate := filepath.Join(path, name+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			found = true

			break
		}
	}

	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", name)
	}

	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", name)
	}

	existingConfigMap := koanfInstance.Raw()

	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		Prefix: "ULINK_",
		TransformFunc: func(k, v string) (string, any) {
			// ULINK_LOG_LEVEL -> log.level, aligned with yaml key casing.
			key := canonicalizeEnvKey(strings.TrimPrefix(k, "ULINK_"), existingConfigMap)

			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			MatchName: func(mapKey, fieldName string) bool {
				// Case-insensitive matching for env var overrides.
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", name)
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}
