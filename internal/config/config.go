package config

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type DB struct {
	Driver          string        `env:"DB_DRIVER,default=postgres"`
	DSN             string        `env:"DB_DSN"`
	Host            string        `env:"DB_HOST,default=localhost"`
	Port            string        `env:"DB_PORT,default=5432"`
	User            string        `env:"DB_USER,default=postgres"`
	Password        string        `env:"DB_PASSWORD,default=password"`
	Name            string        `env:"DB_NAME,default=cglreviews"`
	SSLMode         string        `env:"DB_SSLMODE,default=disable"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS,default=25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS,default=5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME,default=30m"`
}

type MinIO struct {
	Enabled    bool   `env:"MINIO_ENABLED,default=false"`
	Endpoint   string `env:"MINIO_ENDPOINT,default=localhost:9000"`
	AccessKey  string `env:"MINIO_ACCESS_KEY,default=minioadmin"`
	SecretKey  string `env:"MINIO_SECRET_KEY,default=minioadmin"`
	BucketName string `env:"MINIO_BUCKET_NAME,default=cglreviews"`
	UseSSL     bool   `env:"MINIO_USE_SSL,default=false"`
	Region     string `env:"MINIO_REGION,default=us-east-1"`
}

type Security struct {
	HashWorkers int `env:"HASH_WORKERS,default=4"`
}

type Config struct {
	ServerPort    int           `env:"SERVER_PORT,default=8080"`
	BaseURL       string        `env:"BASE_URL,default=http://localhost:8080"`
	LogLevel      string        `env:"LOG_LEVEL,default=info"`
	JWTSecretKey  string        `env:"JWT_SECRET_KEY"`
	TokenDuration time.Duration `env:"TOKEN_DURATION,default=168h"`
	MaxUploadSize int64         `env:"MAX_UPLOAD_SIZE,default=10485760"`
	Programs      string        `env:"PROGRAMS,default=Nottingham;Malta;Alsace;Vienna;Athens"`
	DB            DB
	MinIO         MinIO
	Security      Security
}

// DataSourceName returns the driver DSN, built from the parts when no explicit DSN is set.
func (d DB) DataSourceName() string {
	if d.DSN != "" {
		return d.DSN
	}
	if d.Driver == "sqlite3" {
		return fmt.Sprintf("file:%s.db?_foreign_keys=on", d.Name)
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// ProgramNames splits the semicolon separated PROGRAMS list used to seed the programs table.
func (c *Config) ProgramNames() []string {
	var names []string
	for _, name := range strings.Split(c.Programs, ";") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func LoadConfig(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn(".env file not found, using environment variables")
	}

	cfg := &Config{}
	if err := envconfig.Process(ctx, cfg); err != nil {
		return nil, fmt.Errorf("parsing env vars: %w", err)
	}
	return cfg, nil
}
