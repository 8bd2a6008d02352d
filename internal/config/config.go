package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultConfigPath = "./config/local.yaml"

type Config struct {
	Env            string `yaml:"env" env:"APP_ENV" env-default:"prod"`
	StorageDriver  string `yaml:"storage_driver" env:"STORAGE_DRIVER" env-default:"mysql"`
	StoragePath    string `yaml:"storage_path" env:"STORAGE_PATH" env-default:"./storage/calc.db"`
	MigrateOnStart bool   `yaml:"migrate_on_start" env:"MIGRATE_ON_START" env-default:"false"`
	ErrorsLog      string `yaml:"errors_log" env:"ERRORS_LOG" env-default:"errors.log"`
	FrontendDir    string `yaml:"frontend_dir" env:"FRONTEND_DIR" env-default:"./frontend-dist"`
	HTTPServer     `yaml:"http_server"`
	CORS           `yaml:"cors"`

	DBUser     string `yaml:"db_user" env:"DB_USER"`
	DBPassword string `yaml:"db_password" env:"DB_PASSWORD"`
	DBHost     string `yaml:"db_host" env:"DB_HOST" env-default:"localhost"`
	DBPort     int    `yaml:"db_port" env:"DB_PORT" env-default:"3306"`
	DBName     string `yaml:"db_name" env:"DB_NAME"`
	ParseTime  bool   `yaml:"parse_time" env:"DB_PARSE_TIME" env-default:"true"`

	AdminLogin string `yaml:"admin_login" env:"ADMIN_LOGIN"`
	AdminPass  string `yaml:"admin_pass" env:"ADMIN_PASS"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:4001"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"http://localhost:5173"`
}

func MustConfig() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}

	return cfg
}

// Load читает yaml и накладывает переменные окружения поверх.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
