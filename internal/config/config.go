package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	// ApifyTokenEnv is the environment variable the Apify token is read from
	// when no explicit token is supplied.
	ApifyTokenEnv = "APIFY_API_KEY"

	defaultListenAddress = ":8080"
	defaultMaxTweetAge   = 36 * time.Hour
	defaultMinTextLength = 20
	defaultStatsBufSize  = 128
)

// ErrMissingApifyToken is returned when neither an explicit token nor the
// environment variable provides one.
var ErrMissingApifyToken = fmt.Errorf("no Apify token supplied and %s is not set", ApifyTokenEnv)

// ListConfig is one list entry from the lists file.
type ListConfig struct {
	ID       string `yaml:"id"`
	MaxItems uint   `yaml:"max_items"`
}

type listsFile struct {
	Lists []ListConfig `yaml:"lists"`
}

// Config holds everything the worker reads from the environment at startup.
type Config struct {
	LogLevel      string
	ListenAddress string
	APIKey        string
	ApifyToken    string
	MaxTweetAge   time.Duration
	MinTextLength int
	StatsBufSize  uint
	Lists         []ListConfig
}

// ReadConfig loads the .env file if present and resolves all settings from
// the environment, falling back to defaults. It does not fail on a missing
// Apify token; token resolution is deferred to collector construction so the
// collector can also take an explicit override.
func ReadConfig() *Config {
	// Best effort; a missing .env just means plain environment variables.
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, reading from environment")
	}

	c := &Config{
		LogLevel:      os.Getenv("LOG_LEVEL"),
		ListenAddress: defaultListenAddress,
		APIKey:        os.Getenv("API_KEY"),
		ApifyToken:    os.Getenv(ApifyTokenEnv),
		MaxTweetAge:   defaultMaxTweetAge,
		MinTextLength: defaultMinTextLength,
		StatsBufSize:  defaultStatsBufSize,
	}

	SetLogLevel(ParseLogLevel(c.LogLevel))

	if addr := os.Getenv("LISTEN_ADDRESS"); addr != "" {
		c.ListenAddress = addr
	}

	if s := os.Getenv("MAX_TWEET_AGE_HOURS"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			c.MaxTweetAge = time.Duration(v) * time.Hour
		} else {
			logrus.Errorf("Error parsing MAX_TWEET_AGE_HOURS %q. Setting to default.", s)
		}
	}

	if s := os.Getenv("MIN_TEXT_LENGTH"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			c.MinTextLength = v
		} else {
			logrus.Errorf("Error parsing MIN_TEXT_LENGTH %q. Setting to default.", s)
		}
	}

	if s := os.Getenv("STATS_BUF_SIZE"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			c.StatsBufSize = uint(v)
		} else {
			logrus.Errorf("Error parsing STATS_BUF_SIZE %q. Setting to default.", s)
		}
	}

	if path := os.Getenv("LISTS_FILE"); path != "" {
		lists, err := LoadLists(path)
		if err != nil {
			logrus.Errorf("Failed to load lists file %s: %v", path, err)
		} else {
			c.Lists = lists
		}
	}

	return c
}

// ResolveApifyToken resolves the token the collector will use: an explicit
// override wins, then the environment. Missing both is a configuration error
// surfaced immediately, not deferred to the first actor run.
func ResolveApifyToken(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if token := os.Getenv(ApifyTokenEnv); token != "" {
		return token, nil
	}
	return "", ErrMissingApifyToken
}

// LoadLists reads the YAML lists file used by the one-shot mode.
func LoadLists(path string) ([]ListConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading lists file: %w", err)
	}

	var f listsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("error parsing lists file: %w", err)
	}

	for i, l := range f.Lists {
		if l.ID == "" {
			return nil, errors.New("lists file contains an entry without an id")
		}
		if l.MaxItems == 0 {
			f.Lists[i].MaxItems = 500
		}
	}

	return f.Lists, nil
}

// ParseLogLevel maps a LOG_LEVEL string to a logrus level, defaulting to info.
func ParseLogLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}

// SetLogLevel applies the level to the global logrus logger.
func SetLogLevel(level logrus.Level) {
	logrus.SetLevel(level)
}
