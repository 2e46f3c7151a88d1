package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/fahmaliyi/xmsg/keychain"
)

const defaultClipboardClear = 30 * time.Second

// Config holds every setting xmsg reads from flags, the config file and the
// environment. It is passed explicitly; there is no global mode state.
type Config struct {
	StorePath      string
	LogLevel       uint32
	ClipboardClear time.Duration
}

// NewDefaultConfig creates a new Config with default settings. The store
// lives under ~/.xmsg, or in the working directory when there is no home.
func NewDefaultConfig() *Config {
	path, err := DefaultStorePath()
	if err != nil {
		path = keychain.FileName
	}
	return &Config{
		StorePath:      path,
		LogLevel:       uint32(log.WarnLevel),
		ClipboardClear: defaultClipboardClear,
	}
}

// GetLogLevel converts the level string to its corresponding int value. It
// returns an error if the level is invalid.
func GetLogLevel(level string) (uint32, error) {
	var l uint32
	switch strings.ToLower(level) {
	case "debug":
		l = uint32(log.DebugLevel)
	case "info":
		l = uint32(log.InfoLevel)
	case "warn":
		l = uint32(log.WarnLevel)
	case "error":
		l = uint32(log.ErrorLevel)
	default:
		return 0, fmt.Errorf("invalid log.level setting %q", level)
	}
	return l, nil
}

// NewConfig creates a new Config with default settings and applies any
// settings from the given YAML file and XMSG_* environment variables. An
// empty configFile skips the file.
func NewConfig(configFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("xmsg")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	config := NewDefaultConfig()

	if v.IsSet("keystore.path") {
		config.StorePath = expandHome(v.GetString("keystore.path"))
	}

	if v.IsSet("log.level") {
		level, err := GetLogLevel(v.GetString("log.level"))
		if err != nil {
			return nil, err
		}
		config.LogLevel = level
	}

	if v.IsSet("clipboard.clear") {
		d, err := time.ParseDuration(v.GetString("clipboard.clear"))
		if err != nil {
			return nil, err
		}
		config.ClipboardClear = d
	}

	return config, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
