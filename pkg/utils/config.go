package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"booktracker/pkg/database"
)

type Config struct {
	Env  string     `mapstructure:"env"`
	HTTP HTTPConfig `mapstructure:"http"`
	TCP  TCPConfig  `mapstructure:"tcp"`
	DB   DBConfig   `mapstructure:"db"`
	Log  LogConfig  `mapstructure:"log"`
	CORS CORSConfig `mapstructure:"cors"`
}

type HTTPConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// TCPConfig configures the line-delimited event stream. An empty Addr disables it.
type TCPConfig struct {
	Addr string `mapstructure:"addr"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type CORSConfig struct {
	Origins []string `mapstructure:"origins"`
}

// LoadConfig reads configuration with precedence env > .env file > defaults.
// A missing .env file is not an error.
func LoadConfig(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetDefault("env", "development")
	v.SetDefault("http.addr", ":3000")
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 15*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("tcp.addr", ":7070")
	v.SetDefault("db.path", database.DefaultConfig().Path)
	v.SetDefault("log.level", "info")
	v.SetDefault("cors.origins", []string{"*"})

	v.SetEnvPrefix("BOOKTRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// Database returns the database settings in the form pkg/database expects.
func (c *Config) Database() database.Config {
	return database.Config{Path: c.DB.Path}
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}
