package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken string `envconfig:"BOT_TOKEN" required:"true"`
	DBPath   string `envconfig:"DB_PATH" default:"./data/standup.db"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	DefaultSitMinutes   int `envconfig:"DEFAULT_SIT_MIN" default:"45"`
	DefaultStandMinutes int `envconfig:"DEFAULT_STAND_MIN" default:"5"`

	WorkdayTZ    string `envconfig:"WORKDAY_TZ" default:"Asia/Taipei"`
	WorkdayStart string `envconfig:"WORKDAY_START" default:"09:10"` // HH:MM local
	WorkdayEnd   string `envconfig:"WORKDAY_END" default:"18:00"`   // HH:MM local
	AutoSchedule bool   `envconfig:"AUTO_SCHEDULE" default:"true"`
}

// Load reads environment variables into Config. A .env file in the working
// directory is applied first when present; a missing file is not an error.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
