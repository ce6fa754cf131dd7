// Package config loads diary settings from a .diary file and DIARY_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	KeyPath            = "path"
	KeyBlobs           = "blobs"
	KeyBlobURL         = "blob-url"
	KeyUser            = "user"
	KeyKeepAlive       = "keep-alive"
	KeyDayBound        = "day-bound"
	KeyWeekBound       = "week-bound"
	KeyMonthBound      = "month-bound"
	KeyDetailBound     = "detail-bound"
	KeyCommentEndpoint = "comment-endpoint"
	KeyLogLevel        = "log-level"
)

// Config is the resolved configuration.
type Config struct {
	Path            string        `json:"path"`
	Blobs           string        `json:"blobs"`
	BlobURL         string        `json:"blobUrl"`
	User            string        `json:"user"`
	KeepAlive       time.Duration `json:"keepAlive"`
	DayBound        int           `json:"dayBound"`
	WeekBound       int           `json:"weekBound"`
	MonthBound      int           `json:"monthBound"`
	DetailBound     int           `json:"detailBound"`
	CommentEndpoint string        `json:"commentEndpoint,omitempty"`
	LogLevel        string        `json:"logLevel"`
}

// Load reads the configuration. A missing config file is not an error.
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault(KeyPath, "~/.diary.db")
	v.SetDefault(KeyBlobs, "~/.diary.blobs")
	v.SetDefault(KeyBlobURL, "http://127.0.0.1:8081")
	v.SetDefault(KeyUser, "me")
	v.SetDefault(KeyKeepAlive, "180s")
	v.SetDefault(KeyDayBound, 31)
	v.SetDefault(KeyWeekBound, 12)
	v.SetDefault(KeyMonthBound, 12)
	v.SetDefault(KeyDetailBound, 64)
	v.SetDefault(KeyCommentEndpoint, "")
	v.SetDefault(KeyLogLevel, "info")

	v.SetConfigName(".diary") // .yaml is implicit
	v.SetEnvPrefix("DIARY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if override := os.Getenv("DIARY_CONFIG_PATH"); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath("./")
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	path, err := homedir.Expand(v.GetString(KeyPath))
	if err != nil {
		return nil, fmt.Errorf("config: expanding %s: %w", KeyPath, err)
	}
	blobs, err := homedir.Expand(v.GetString(KeyBlobs))
	if err != nil {
		return nil, fmt.Errorf("config: expanding %s: %w", KeyBlobs, err)
	}

	return &Config{
		Path:            path,
		Blobs:           blobs,
		BlobURL:         v.GetString(KeyBlobURL),
		User:            v.GetString(KeyUser),
		KeepAlive:       v.GetDuration(KeyKeepAlive),
		DayBound:        v.GetInt(KeyDayBound),
		WeekBound:       v.GetInt(KeyWeekBound),
		MonthBound:      v.GetInt(KeyMonthBound),
		DetailBound:     v.GetInt(KeyDetailBound),
		CommentEndpoint: v.GetString(KeyCommentEndpoint),
		LogLevel:        v.GetString(KeyLogLevel),
	}, nil
}
