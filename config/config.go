package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config stores the application configuration. Values come from defaults,
// then an optional YAML file, then the environment (including .env).
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	FFmpeg  FFmpegConfig  `yaml:"ffmpeg"`
	TTS     TTSConfig     `yaml:"tts"`
	Redis   RedisConfig   `yaml:"redis"`
	Minio   MinioConfig   `yaml:"minio"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Port                 string `yaml:"port"`
	ScratchDir           string `yaml:"scratch_dir"` // empty means os.TempDir()
	MaxUploadMB          int    `yaml:"max_upload_mb"`
	MaxConcurrentRenders int    `yaml:"max_concurrent_renders"`
}

type FFmpegConfig struct {
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`
}

type TTSConfig struct {
	Provider      string `yaml:"provider"` // "google", "openai" or "piper"
	Lang          string `yaml:"lang"`
	GoogleBaseURL string `yaml:"google_base_url"`
	OpenAIKey     string `yaml:"openai_key"`
	OpenAIBaseURL string `yaml:"openai_base_url"`
	OpenAIModel   string `yaml:"openai_model"`
	OpenAIVoice   string `yaml:"openai_voice"`
	PiperPath     string `yaml:"piper_path"`
	PiperModel    string `yaml:"piper_model"`

	// PiperSampleRate must match the voice model's config.
	PiperSampleRate int `yaml:"piper_sample_rate"`
}

// RedisConfig enables the narration cache when Host is set.
type RedisConfig struct {
	Host         string        `yaml:"host"`
	Port         string        `yaml:"port"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	NarrationTTL time.Duration `yaml:"narration_ttl"`
}

// MinioConfig enables the artifact archive when Endpoint is set.
type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                 "8080",
			MaxUploadMB:          200,
			MaxConcurrentRenders: 2,
		},
		FFmpeg: FFmpegConfig{
			FFmpegPath:  "ffmpeg",
			FFprobePath: "ffprobe",
		},
		TTS: TTSConfig{
			Provider:        "google",
			Lang:            "en",
			OpenAIModel:     "tts-1",
			OpenAIVoice:     "alloy",
			PiperPath:       "piper",
			PiperSampleRate: 22050,
		},
		Redis: RedisConfig{
			Port:         "6379",
			NarrationTTL: 24 * time.Hour,
		},
		Minio: MinioConfig{
			Bucket: "slidecast",
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads .env (if present), the YAML file at path (if non-empty, falling
// back to $SLIDECAST_CONFIG), and finally the environment.
func Load(path string) (*Config, error) {
	// .env is optional; existing environment variables win over it.
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = os.Getenv("SLIDECAST_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Server.Port = getEnv("SERVER_PORT", c.Server.Port)
	c.Server.ScratchDir = getEnv("SCRATCH_DIR", c.Server.ScratchDir)
	c.Server.MaxUploadMB = getEnvInt("MAX_UPLOAD_MB", c.Server.MaxUploadMB)
	c.Server.MaxConcurrentRenders = getEnvInt("MAX_CONCURRENT_RENDERS", c.Server.MaxConcurrentRenders)

	c.FFmpeg.FFmpegPath = getEnv("FFMPEG_PATH", c.FFmpeg.FFmpegPath)
	c.FFmpeg.FFprobePath = getEnv("FFPROBE_PATH", c.FFmpeg.FFprobePath)

	c.TTS.Provider = strings.ToLower(getEnv("TTS_PROVIDER", c.TTS.Provider))
	c.TTS.Lang = getEnv("TTS_LANG", c.TTS.Lang)
	c.TTS.GoogleBaseURL = getEnv("TTS_GOOGLE_BASE_URL", c.TTS.GoogleBaseURL)
	c.TTS.OpenAIKey = getEnv("OPENAI_API_KEY", c.TTS.OpenAIKey)
	c.TTS.OpenAIBaseURL = getEnv("TTS_OPENAI_BASE_URL", c.TTS.OpenAIBaseURL)
	c.TTS.OpenAIModel = getEnv("TTS_OPENAI_MODEL", c.TTS.OpenAIModel)
	c.TTS.OpenAIVoice = getEnv("TTS_OPENAI_VOICE", c.TTS.OpenAIVoice)
	c.TTS.PiperPath = getEnv("TTS_PIPER_BIN", c.TTS.PiperPath)
	c.TTS.PiperModel = getEnv("TTS_PIPER_MODEL", c.TTS.PiperModel)
	c.TTS.PiperSampleRate = getEnvInt("TTS_PIPER_SAMPLE_RATE", c.TTS.PiperSampleRate)

	c.Redis.Host = getEnv("REDIS_HOST", c.Redis.Host)
	c.Redis.Port = getEnv("REDIS_PORT", c.Redis.Port)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("REDIS_DB", c.Redis.DB)
	if v, ok := os.LookupEnv("NARRATION_CACHE_TTL"); ok {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid NARRATION_CACHE_TTL: %w", err)
		}
		c.Redis.NarrationTTL = ttl
	}

	c.Minio.Endpoint = getEnv("MINIO_ENDPOINT", c.Minio.Endpoint)
	c.Minio.AccessKey = getEnv("MINIO_ACCESS_KEY", c.Minio.AccessKey)
	c.Minio.SecretKey = getEnv("MINIO_SECRET_KEY", c.Minio.SecretKey)
	c.Minio.Bucket = getEnv("MINIO_BUCKET", c.Minio.Bucket)
	c.Minio.Region = getEnv("MINIO_REGION", c.Minio.Region)
	c.Minio.UseSSL = getEnvBool("MINIO_USE_SSL", c.Minio.UseSSL)

	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.File = getEnv("LOG_FILE", c.Logging.File)
	c.Logging.MaxSizeMB = getEnvInt("LOG_MAX_SIZE_MB", c.Logging.MaxSizeMB)
	c.Logging.MaxBackups = getEnvInt("LOG_MAX_BACKUPS", c.Logging.MaxBackups)
	c.Logging.MaxAgeDays = getEnvInt("LOG_MAX_AGE_DAYS", c.Logging.MaxAgeDays)
	c.Logging.Compress = getEnvBool("LOG_COMPRESS", c.Logging.Compress)
	return nil
}

// Validate checks that the selected backends have what they need.
func (c *Config) Validate() error {
	switch c.TTS.Provider {
	case "google":
	case "openai":
		if c.TTS.OpenAIKey == "" {
			return fmt.Errorf("tts provider openai requires OPENAI_API_KEY")
		}
	case "piper":
		if c.TTS.PiperModel == "" {
			return fmt.Errorf("tts provider piper requires TTS_PIPER_MODEL")
		}
	default:
		return fmt.Errorf("unknown tts provider %q", c.TTS.Provider)
	}

	if c.TTS.Lang == "" {
		return fmt.Errorf("tts.lang is required")
	}
	if c.FFmpeg.FFmpegPath == "" {
		return fmt.Errorf("ffmpeg.ffmpeg_path is required")
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("max_upload_mb must be positive")
	}
	if c.Server.MaxConcurrentRenders <= 0 {
		c.Server.MaxConcurrentRenders = 1
	}

	if c.MinioEnabled() {
		var missing []string
		if c.Minio.AccessKey == "" {
			missing = append(missing, "MINIO_ACCESS_KEY")
		}
		if c.Minio.SecretKey == "" {
			missing = append(missing, "MINIO_SECRET_KEY")
		}
		if c.Minio.Bucket == "" {
			missing = append(missing, "MINIO_BUCKET")
		}
		if len(missing) > 0 {
			return fmt.Errorf("minio archive enabled but missing: %s", strings.Join(missing, ", "))
		}
	}
	return nil
}

func (c *Config) Addr() string {
	return ":" + c.Server.Port
}

func (c *Config) RedisEnabled() bool {
	return c.Redis.Host != ""
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

func (c *Config) MinioEnabled() bool {
	return c.Minio.Endpoint != ""
}

func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
