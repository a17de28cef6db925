package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/memonest/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	// envPrefix prefixes the environment overrides, e.g. MEMONEST_LOG_LEVEL.
	envPrefix = "MEMONEST"
)

// Config keys.
const (
	cfgKeyConfigDir   = "config_dir"
	cfgKeyMode        = "mode"
	cfgKeyDataDir     = "data_dir"
	cfgKeyIsolatedDir = "isolated_dir"
	cfgKeyHTTPAddr    = "http.addr"
	cfgKeyHTTPMode    = "http.mode"
	cfgKeyLogLevel    = "log.level"
	cfgKeyLogFormat   = "log.format"
)

// Defaults applied when config.yaml and the environment leave a key unset.
const (
	defaultMode      = types.ModeSingleUser
	defaultHTTPAddr  = "localhost:8080"
	defaultHTTPMode  = types.ModeCollaboration
	defaultLogLevel  = "warn"
	defaultLogFormat = "console"
)

// envKeys are the keys that MEMONEST_* variables may override. Directory
// keys are resolved by the paths package instead.
var envKeys = []string{cfgKeyMode, cfgKeyHTTPAddr, cfgKeyHTTPMode, cfgKeyLogLevel, cfgKeyLogFormat}

// configFile holds the structure written to config.yaml.
type configFile struct {
	Mode        string        `yaml:"mode"`
	DataDir     string        `yaml:"data_dir,omitempty"`
	IsolatedDir string        `yaml:"isolated_dir,omitempty"`
	HTTP        httpSection   `yaml:"http"`
	Log         loggerSection `yaml:"log"`
}

type httpSection struct {
	Addr string `yaml:"addr"`
	Mode string `yaml:"mode"`
}

type loggerSection struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// defaultConfigFile returns the content written by init.
func defaultConfigFile(dataDir string) configFile {
	return configFile{
		Mode:    defaultMode,
		DataDir: dataDir,
		HTTP:    httpSection{Addr: defaultHTTPAddr, Mode: defaultHTTPMode},
		Log:     loggerSection{Level: defaultLogLevel, Format: defaultLogFormat},
	}
}

// loadConfig reads config.yaml from configDir using Viper. A missing
// config.yaml or config directory is not an error; defaults apply.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyMode, defaultMode)
	v.SetDefault(cfgKeyHTTPAddr, defaultHTTPAddr)
	v.SetDefault(cfgKeyHTTPMode, defaultHTTPMode)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetDefault(cfgKeyLogFormat, defaultLogFormat)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// writeConfigIfMissing creates config.yaml with default values. An existing
// file is left untouched and false is returned.
func writeConfigIfMissing(configDir, dataDir string) (bool, error) {
	path := filepath.Join(configDir, configFileExt)
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	cfg := defaultConfigFile(dataDir)
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
