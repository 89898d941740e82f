package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/tcriess/lightspeed-board/globals"
)

const (
	defaultLogLevel       = "INFO"
	defaultWaterfallSize  = 50
	defaultInitialGold    = 100
	defaultCursorInterval = 200
)

// Config is the global configuration object which is filled via the
// configuration file.
type Config struct {
	PersistenceConfig PersistenceConfig `mapstructure:"persistence"`
	ChainConfig       ChainConfig       `mapstructure:"chain"`
	HistoryConfig     HistoryConfig     `mapstructure:"history"`
	GameConfig        GameConfig        `mapstructure:"game"`
	AnnounceConfig    AnnounceConfig    `mapstructure:"announce"`
	LogLevel          string            `mapstructure:"log_level"`

	// Production switches the room read/list paths from canned fixtures to
	// the configured persister.
	Production bool `mapstructure:"production"`
}

// PersistenceConfig configures the persistence backend, selected by Type
// ("sqlite", "postgres" or "buntdb") with a backend-specific DSN.
type PersistenceConfig struct {
	Type string `mapstructure:"type"`
	DSN  string `mapstructure:"dsn"`
}

// ChainConfig configures the JSON-RPC endpoint used for the ERC-20 balance
// check of token-gated rooms. An empty RpcUrl disables the gate.
type ChainConfig struct {
	RpcUrl string `mapstructure:"rpc_url"`
}

// HistoryConfig configures the size of the waterfall chat transcript kept in
// memory per room.
type HistoryConfig struct {
	WaterfallSize int `mapstructure:"waterfall_size"`
}

// GameConfig configures the tower-defense mini game.
type GameConfig struct {
	InitialGold      int `mapstructure:"initial_gold"`
	CursorIntervalMs int `mapstructure:"cursor_interval_ms"`
}

// AnnounceConfig configures the external announcement of newly created
// rooms. An empty WebhookUrl disables announcements. SiteUrl is the public
// base url used in the announcement text.
type AnnounceConfig struct {
	WebhookUrl string `mapstructure:"webhook_url"`
	SiteUrl    string `mapstructure:"site_url"`
}

func GetFlagSet() *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("configuration", pflag.ContinueOnError)
	flagSet.Bool("production", false, "serve rooms from the persister instead of fixtures")
	flagSet.String("log-level", "", "log level (TRACE/DEBUG/INFO/WARN/ERROR)")
	return flagSet
}

// wordSepNormalizeFunc allows for normalization of the flag names (which use - as a separator)
func wordSepNormalizeFunc(f *pflag.FlagSet, name string) pflag.NormalizedName {
	from := "-"
	to := "_"
	name = strings.Replace(name, from, to, -1)
	return pflag.NormalizedName(name)
}

// ReadConfiguration reads and parses the configuration located at configPath,
// which can either point to a single TOML file or to a directory, in which
// case all *.toml files in this directory are concatenated. It returns a
// Config object.
func ReadConfiguration(configPath string, flagSet *pflag.FlagSet) (*Config, error) {
	cfg := Config{}
	flagSet.SetNormalizeFunc(wordSepNormalizeFunc)
	viper.SetDefault("log_level", defaultLogLevel)
	viper.SetDefault("history.waterfall_size", defaultWaterfallSize)
	viper.SetDefault("game.initial_gold", defaultInitialGold)
	viper.SetDefault("game.cursor_interval_ms", defaultCursorInterval)
	err := viper.BindPFlags(flagSet)
	if err != nil {
		globals.AppLogger.Error("could not bind flags (ignored)", "error", err)
	}
	viper.SetEnvPrefix("LSBOARD")
	viper.AutomaticEnv()
	if configPath != "" {
		fi, err := os.Stat(configPath)
		if err != nil {
			return nil, err
		}
		contents := make([]byte, 0)
		files := []string{configPath}
		if fi.IsDir() {
			files, err = filepath.Glob(filepath.Join(configPath, "*.toml"))
			if err != nil {
				return nil, err
			}
		}
		for _, configFile := range files {
			fileContents, err := os.ReadFile(configFile)
			if err != nil {
				return nil, err
			}
			contents = append(contents, fileContents...)
			contents = append(contents, '\n')
		}
		viper.SetConfigType("toml")
		err = viper.ReadConfig(bytes.NewBuffer(contents))
		if err != nil {
			globals.AppLogger.Error("could not read config:", "error", err)
		}
	}
	err = viper.Unmarshal(&cfg)
	if err != nil {
		globals.AppLogger.Error("could not unmarshal config:", "error", err)
	}

	globals.AppLogger.Debug("config", "cfg", cfg)
	return &cfg, nil
}
