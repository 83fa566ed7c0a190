package config

import "time"

// Config is the server configuration.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	AWS           AWSConfig           `mapstructure:"aws"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Email         EmailConfig         `mapstructure:"email"`
	Transcription TranscriptionConfig `mapstructure:"transcription"`
	Uploads       UploadConfig        `mapstructure:"uploads"`
	Matching      MatchingConfig      `mapstructure:"matching"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	CORS          CORSConfig          `mapstructure:"cors"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type AWSConfig struct {
	Region   string       `mapstructure:"region"`
	S3Bucket string       `mapstructure:"s3_bucket"`
	Tables   TablesConfig `mapstructure:"tables"`
}

// TablesConfig names the DynamoDB tables and indexes.
type TablesConfig struct {
	Users           string `mapstructure:"users"`
	Videos          string `mapstructure:"videos"`
	Comments        string `mapstructure:"comments"`
	Likes           string `mapstructure:"likes"`
	UserEmailIndex  string `mapstructure:"user_email_index"`
	UserNameIndex   string `mapstructure:"user_name_index"`
	VideoOwnerIndex string `mapstructure:"video_owner_index"`
}

type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
	ResetTokenTTL time.Duration `mapstructure:"reset_token_ttl"`
	BcryptCost    int           `mapstructure:"bcrypt_cost"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type EmailConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	From        string `mapstructure:"from"`
	FrontendURL string `mapstructure:"frontend_url"`
}

type TranscriptionConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	LanguageCode string        `mapstructure:"language_code"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxFileSize  int64         `mapstructure:"max_file_size"`
}

type UploadConfig struct {
	MaxVideoSize     int64 `mapstructure:"max_video_size"`
	MaxThumbnailSize int64 `mapstructure:"max_thumbnail_size"`
}

type MatchingConfig struct {
	Mode         string `mapstructure:"mode"`
	PreviewLimit int    `mapstructure:"preview_limit"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}
