package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rocketscienceinc/bingo-backend/internal/entity"
)

var (
	ErrInvalidNumberPool  = errors.New("number pool out of range")
	ErrInvalidIdleTimeout = errors.New("room idle timeout must not be negative")
	ErrInvalidLogLevel    = errors.New("unknown log level")
)

type Config struct {
	LogLevel   string `yaml:"log-level"   env:"LOG_LEVEL"   env-default:"info"`
	HTTPPort   string `yaml:"http-port"   env:"HTTP_PORT"   env-default:"9090"`
	SocketPort string `yaml:"socket-port" env:"SOCKET_PORT" env-default:"8080"`
	PublicURL  string `yaml:"public-url"  env:"PUBLIC_URL"  env-default:"http://localhost:8080"`
	Redis      Redis  `yaml:"redis"       env-prefix:"REDIS_"`
	Game       Game   `yaml:"game"        env-prefix:"GAME_"`
}

type Redis struct {
	Host     string `yaml:"host"     env:"HOST"     env-default:"localhost"`
	Port     string `yaml:"port"     env:"PORT"     env-default:"6379"`
	Password string `yaml:"password" env:"PASSWORD" env-default:""`
	DB       int    `yaml:"db"       env:"DB"       env-default:"0"`
}

type Game struct {
	NumberPool      int           `yaml:"number-pool"       env:"NUMBER_POOL"       env-default:"25"`
	RoomIdleTimeout time.Duration `yaml:"room-idle-timeout" env:"ROOM_IDLE_TIMEOUT" env-default:"30m"`
	ResultHistory   int           `yaml:"result-history"    env:"RESULT_HISTORY"    env-default:"100"`
}

// Load - reads config.yml at path, or only the environment when the file does not exist.
func Load(path string) (*Config, error) {
	config := &Config{}

	var err error
	if _, statErr := os.Stat(path); statErr == nil {
		err = cleanenv.ReadConfig(path, config)
	} else {
		err = cleanenv.ReadEnv(config)
	}

	if err != nil {
		return nil, fmt.Errorf("unable to load config: %w", err)
	}

	if err = config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func (that *Config) Validate() error {
	if that.Game.NumberPool < entity.ClassicPool || that.Game.NumberPool > entity.MaxPool {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidNumberPool, that.Game.NumberPool, entity.ClassicPool, entity.MaxPool)
	}

	if that.Game.RoomIdleTimeout < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidIdleTimeout, that.Game.RoomIdleTimeout)
	}

	switch strings.ToLower(that.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, that.LogLevel)
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
