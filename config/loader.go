package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads .env (if any), configs/config.yaml (if any) and the environment.
// Environment keys are the dotted key upper-cased with "_" separators, e.g. AUTH_JWT_SECRET.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}
	return build(v)
}

// LoadFromFile reads configuration from path plus the environment.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return build(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	// Names the server has historically been deployed with.
	_ = v.BindEnv("server.port", "SERVER_PORT", "PORT")
	_ = v.BindEnv("aws.s3_bucket", "AWS_S3_BUCKET", "S3_BUCKET_NAME")
	_ = v.BindEnv("auth.jwt_secret", "AUTH_JWT_SECRET", "JWT_SECRET")
	_ = v.BindEnv("email.frontend_url", "EMAIL_FRONTEND_URL", "FRONTEND_URL")
	return v
}

func build(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	paths := []string{".env", "../.env"}
	if root := findProjectRoot(); root != "" {
		paths = append(paths, filepath.Join(root, ".env"))
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			if godotenv.Load(p) == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3001")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "0s")
	v.SetDefault("server.shutdown_timeout", "15s")

	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("aws.s3_bucket", "")
	v.SetDefault("aws.tables.users", "Users")
	v.SetDefault("aws.tables.videos", "Videos")
	v.SetDefault("aws.tables.comments", "Comments")
	v.SetDefault("aws.tables.likes", "Likes")
	v.SetDefault("aws.tables.user_email_index", "email-index")
	v.SetDefault("aws.tables.user_name_index", "username-index")
	v.SetDefault("aws.tables.video_owner_index", "userId-createdAt-index")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "168h")
	v.SetDefault("auth.reset_token_ttl", "1h")
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("email.enabled", false)
	v.SetDefault("email.from", "Amplify Youth Voices <noreply@amplify.com>")
	v.SetDefault("email.frontend_url", "http://localhost:5173")

	v.SetDefault("transcription.enabled", false)
	v.SetDefault("transcription.language_code", "en-US")
	v.SetDefault("transcription.poll_interval", "5s")
	v.SetDefault("transcription.timeout", "30m")
	v.SetDefault("transcription.max_file_size", 500<<20)

	v.SetDefault("uploads.max_video_size", 500<<20)
	v.SetDefault("uploads.max_thumbnail_size", 5<<20)

	v.SetDefault("matching.mode", "substring")
	v.SetDefault("matching.preview_limit", 3)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})
}

func validateConfig(cfg *Config) error {
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if cfg.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if cfg.AWS.Region == "" {
		return fmt.Errorf("aws.region is required")
	}
	switch cfg.Matching.Mode {
	case "substring", "word":
	default:
		return fmt.Errorf("matching.mode must be substring or word, got %q", cfg.Matching.Mode)
	}
	if cfg.Auth.BcryptCost < 4 || cfg.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt_cost must be between 4 and 31")
	}
	if cfg.Transcription.Enabled && cfg.Transcription.PollInterval <= 0 {
		return fmt.Errorf("transcription.poll_interval must be positive")
	}
	return nil
}
