package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	// bcrypt hash of the key clients exchange for an access token
	APIKeyHash string `mapstructure:"api_key_hash"`
	// requests per user per window; 0 disables limiting
	RateLimit       int           `mapstructure:"rate_limit"`
	RateLimitWindow time.Duration `mapstructure:"rate_limit_window"`
}

type RedisConfig struct {
	Addr       string        `mapstructure:"addr"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	PoolSize int    `mapstructure:"pool_size"`
}

func (d DBConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.Username, d.Password, d.Host, d.Port, d.Name)
}

type AssistantConfig struct {
	// openai | ollama | gemini | scripted
	Provider     string   `mapstructure:"provider"`
	Model        string   `mapstructure:"model"`
	OpenAIAPIKey string   `mapstructure:"openai_api_key"`
	OpenAIURL    string   `mapstructure:"openai_url"`
	GeminiAPIKey string   `mapstructure:"gemini_api_key"`
	OllamaURLs   []string `mapstructure:"ollama_urls"`
}

type SpeechConfig struct {
	WhisperURL string `mapstructure:"whisper_url"`
	PiperURL   string `mapstructure:"piper_url"`
	Voice      string `mapstructure:"voice"`
	Language   string `mapstructure:"language"`
	SampleRate int    `mapstructure:"sample_rate"`
}

type SandboxConfig struct {
	URL     string        `mapstructure:"url"`
	APIKey  string        `mapstructure:"api_key"`
	APIHost string        `mapstructure:"api_host"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type InterviewConfig struct {
	MaxQuestions      int           `mapstructure:"max_questions"`
	CodingAfter       int           `mapstructure:"coding_after"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	InactivityTimeout time.Duration `mapstructure:"inactivity_timeout"`
	ProcessingTimeout time.Duration `mapstructure:"processing_timeout"`
	MaxErrors         int           `mapstructure:"max_errors"`
	SpeechCacheSize   int           `mapstructure:"speech_cache_size"`
	// idle time after which an interview is finished with a report
	AbandonAfter time.Duration `mapstructure:"abandon_after"`
}

type SchedulerConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	Concurrency int  `mapstructure:"concurrency"`
}

type Settings struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Redis     RedisConfig     `mapstructure:"redis"`
	DB        DBConfig        `mapstructure:"database"`
	Assistant AssistantConfig `mapstructure:"assistant"`
	Speech    SpeechConfig    `mapstructure:"speech"`
	Sandbox   SandboxConfig   `mapstructure:"sandbox"`
	Interview InterviewConfig `mapstructure:"interview"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Env       string          `mapstructure:"env"`
	Debug     bool            `mapstructure:"debug" default:"false"`
}

func Load() (*Settings, error) {
	v := newViper("config_" + genEnv())
	setServerDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &settings, nil
}

func newViper(name string) *viper.Viper {
	v := viper.New()
	v.SetConfigName(name)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetConfigType("yaml")
	v.SetEnvPrefix("INTERVOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setServerDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8088)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.rate_limit", 60)
	v.SetDefault("auth.rate_limit_window", time.Minute)
	v.SetDefault("redis.session_ttl", time.Hour)
	v.SetDefault("database.pool_size", 10)
	v.SetDefault("assistant.provider", "scripted")
	v.SetDefault("speech.sample_rate", 16000)
	v.SetDefault("speech.language", "en")
	v.SetDefault("sandbox.timeout", 30*time.Second)
	v.SetDefault("interview.max_questions", 10)
	v.SetDefault("interview.coding_after", 2)
	v.SetDefault("interview.heartbeat_interval", 30*time.Second)
	v.SetDefault("interview.inactivity_timeout", 300*time.Second)
	v.SetDefault("interview.processing_timeout", 30*time.Second)
	v.SetDefault("interview.max_errors", 5)
	v.SetDefault("interview.speech_cache_size", 50)
	v.SetDefault("interview.abandon_after", 30*time.Minute)
	v.SetDefault("scheduler.concurrency", 4)
}

func genEnv() string {
	_ = viper.BindEnv("ENV")
	env := viper.GetString("ENV")
	if env == "" {
		return "dev"
	}
	return env
}
