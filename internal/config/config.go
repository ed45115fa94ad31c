package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	OCRBackendTesseract = "tesseract"
	OCRBackendOpenAI    = "openai"
	OCRBackendFake      = "fake"
	OCRBackendNone      = "none"
)

type Config struct {
	Env            string
	HTTPAddr       string
	StaticDir      string
	MaxUploadBytes int64
	ScanRateLimit  int
	MaxConns       int
	DatabaseURL    string
	CatalogFile    string
	OCR            OCRConfig
	S3             S3Config
	Auth           AuthConfig
	Logging        LoggingConfig
	Worker         WorkerConfig
}

type OCRConfig struct {
	Backend         string
	FakeTextFile    string
	LanguageHints   []string
	Timeout         time.Duration
	RateRPS         float64
	RateBurst       int
	TesseractBin    string
	TessdataDir     string
	TesseractFormat string
	OpenAIKey       string
	OpenAIModel     string
	OpenAIBaseURL   string
	RedisURL        string
	CacheTTL        time.Duration
}

type S3Config struct {
	Endpoint       string
	PublicEndpoint string
	Bucket         string
	AccessKey      string
	SecretKey      string
	Region         string
	UseSSL         bool
}

// AuthConfig guards the scan history endpoints. An empty JWTSecret leaves them open.
type AuthConfig struct {
	JWTSecret     string
	AdminLogin    string
	AdminPassword string
	AdminPassHash string
	TokenTTL      time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
	File   string
}

type WorkerConfig struct {
	Interval  time.Duration
	BatchSize int
}

// Load reads the configuration from the environment. A .env file in the working directory
// is applied first without overriding variables that are already set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	backend := strings.ToLower(getenv("OCR_BACKEND", OCRBackendTesseract))
	if getenvBool("USE_FAKE_TEXT", false) {
		backend = OCRBackendFake
	}

	cfg := &Config{
		Env:            getenv("APP_ENV", "dev"),
		HTTPAddr:       httpAddr(),
		StaticDir:      getenv("STATIC_DIR", "static"),
		MaxUploadBytes: int64(getenvInt("MAX_UPLOAD_BYTES", 10<<20)),
		ScanRateLimit:  getenvInt("SCAN_RATE_LIMIT", 30),
		MaxConns:       getenvInt("MAX_CONNS", 0),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		CatalogFile:    os.Getenv("CATALOG_FILE"),
		OCR: OCRConfig{
			Backend:         backend,
			FakeTextFile:    os.Getenv("FAKE_TEXT_FILE"),
			LanguageHints:   getenvList("OCR_LANGUAGE_HINTS", []string{"ja", "zh-Hant", "en"}),
			Timeout:         getenvDuration("OCR_TIMEOUT", 30*time.Second),
			RateRPS:         getenvFloat("OCR_RATE_RPS", 2),
			RateBurst:       getenvInt("OCR_RATE_BURST", 4),
			TesseractBin:    getenv("TESSERACT_BIN", "tesseract"),
			TessdataDir:     os.Getenv("TESSDATA_DIR"),
			TesseractFormat: strings.ToLower(getenv("TESSERACT_FORMAT", "text")),
			OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
			OpenAIModel:     getenv("OPENAI_MODEL", "gpt-4o"),
			OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),
			RedisURL:        os.Getenv("REDIS_URL"),
			CacheTTL:        getenvDuration("OCR_CACHE_TTL", 24*time.Hour),
		},
		S3: S3Config{
			Endpoint:       os.Getenv("S3_ENDPOINT"),
			PublicEndpoint: os.Getenv("S3_PUBLIC_ENDPOINT"),
			Bucket:         os.Getenv("S3_BUCKET"),
			AccessKey:      os.Getenv("S3_ACCESS_KEY"),
			SecretKey:      os.Getenv("S3_SECRET_KEY"),
			Region:         getenv("S3_REGION", "us-east-1"),
			UseSSL:         getenvBool("S3_USE_SSL", true),
		},
		Auth: AuthConfig{
			JWTSecret:     os.Getenv("JWT_SECRET"),
			AdminLogin:    os.Getenv("ADMIN_LOGIN"),
			AdminPassword: os.Getenv("ADMIN_PASSWORD"),
			AdminPassHash: os.Getenv("ADMIN_PASSWORD_HASH"),
			TokenTTL:      getenvDuration("ACCESS_TOKEN_TTL", 12*time.Hour),
		},
		Logging: LoggingConfig{
			Level:  getenv("LOG_LEVEL", "info"),
			Format: getenv("LOG_FORMAT", "text"),
			File:   os.Getenv("LOG_FILE"),
		},
		Worker: WorkerConfig{
			Interval:  getenvDuration("WORKER_INTERVAL", 30*time.Second),
			BatchSize: getenvInt("WORKER_BATCH", 50),
		},
	}

	if err := cfg.OCR.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected backend has what it needs.
func (c OCRConfig) Validate() error {
	switch c.Backend {
	case OCRBackendTesseract, OCRBackendNone:
	case OCRBackendFake:
		if c.FakeTextFile == "" {
			return fmt.Errorf("FAKE_TEXT_FILE is required for the fake OCR backend")
		}
	case OCRBackendOpenAI:
		if c.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai OCR backend")
		}
	default:
		return fmt.Errorf("unknown OCR_BACKEND %q", c.Backend)
	}
	switch c.TesseractFormat {
	case "text", "hocr":
	default:
		return fmt.Errorf("unknown TESSERACT_FORMAT %q", c.TesseractFormat)
	}
	return nil
}

func httpAddr() string {
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		return v
	}
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":8080"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return parsed
}

func getenvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
