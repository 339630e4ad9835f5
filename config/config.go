package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode   string `mapstructure:"mode"`
	Server struct {
		HTTPPort    string        `mapstructure:"HTTPPort"`
		MetricsPort string        `mapstructure:"metricsPort"`
		Timeout     time.Duration `mapstructure:"HTTPTimeout"`
		CORSOrigins []string      `mapstructure:"corsOrigins"`
	} `mapstructure:"server"`
	Repositories struct {
		Postgres struct {
			Host     string `mapstructure:"host"`
			Password string `mapstructure:"password"`
			Port     string `mapstructure:"port"`
			Username string `mapstructure:"username"`
			DB       string `mapstructure:"db"`
			SSLMode  string `mapstructure:"sslmode"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	JWT     JWTConfig     `mapstructure:"jwt"`
	Storage StorageConfig `mapstructure:"storage"`
	Mail    MailConfig    `mapstructure:"mail"`
}

// JWTConfig holds token signing parameters. The secret is never
// embedded; it must come from the environment.
type JWTConfig struct {
	SecretKey string        `mapstructure:"secretKey"`
	TokenTTL  time.Duration `mapstructure:"tokenTTL"`
	Issuer    string        `mapstructure:"issuer"`
}

// StorageConfig holds the object-store provider settings. Credentials
// may legitimately be absent: the blob gateway then starts disabled
// and the upload path fast-fails instead of crashing the process.
type StorageConfig struct {
	Endpoint      string `mapstructure:"endpoint"`
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	AccessKey     string `mapstructure:"accessKey"`
	SecretKey     string `mapstructure:"secretKey"`
	PublicBaseURL string `mapstructure:"publicBaseURL"`
}

type MailConfig struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	From        string        `mapstructure:"from"`
	SendTimeout time.Duration `mapstructure:"sendTimeout"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	// Add file-based config paths
	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// Try to load file-based config
	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	// Unmarshal the config into the Config struct
	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}

	applyEnvOverrides(&config)
	return config, nil
}

// applyEnvOverrides lets secrets and connection details come from the
// environment instead of the checked-in yaml. Credentials must never
// live in source or config files.
func applyEnvOverrides(cfg *Config) {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&cfg.Server.HTTPPort, "PORT")
	set(&cfg.Repositories.Postgres.Host, "POSTGRES_HOST")
	set(&cfg.Repositories.Postgres.Port, "POSTGRES_PORT")
	set(&cfg.Repositories.Postgres.Username, "POSTGRES_USER")
	set(&cfg.Repositories.Postgres.Password, "POSTGRES_PASSWORD")
	set(&cfg.Repositories.Postgres.DB, "POSTGRES_DB")
	set(&cfg.JWT.SecretKey, "JWT_SECRET")
	set(&cfg.Storage.Endpoint, "STORAGE_ENDPOINT")
	set(&cfg.Storage.Region, "STORAGE_REGION")
	set(&cfg.Storage.Bucket, "STORAGE_BUCKET")
	set(&cfg.Storage.AccessKey, "STORAGE_ACCESS_KEY")
	set(&cfg.Storage.SecretKey, "STORAGE_SECRET_KEY")
	set(&cfg.Storage.PublicBaseURL, "STORAGE_PUBLIC_BASE_URL")
	set(&cfg.Mail.Host, "SMTP_HOST")
	set(&cfg.Mail.Username, "SMTP_USER")
	set(&cfg.Mail.Password, "SMTP_PASSWORD")
	set(&cfg.Mail.From, "SMTP_FROM")
}
