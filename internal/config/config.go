package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/jpp0ca/TrackFetch/internal/domain"
	"github.com/jpp0ca/TrackFetch/internal/matching"
)

// Materializer names accepted by MATERIALIZER.
const (
	MaterializerYTDLP  = "ytdlp"
	MaterializerNative = "native"
	MaterializerDryRun = "dryrun"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Port string

	YouTubeAPIKey    string
	MaxResults       int
	SearchRatePerSec float64
	SearchBurst      int

	SpotifyID     string
	SpotifySecret string

	Workers      int
	BatchTimeout time.Duration

	OutputDir    string
	AudioFormat  string
	Materializer string
	YTDLPPath    string
	FFmpegPath   string
	DBPath       string
	TagOutput    bool

	LogLevel  string
	LogFormat string

	ScoringFile string
	Scoring     matching.ScoringConfig
}

// Load reads configuration from .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() (*Config, error) {
	outputDir := getEnv("OUTPUT_DIR", filepath.Join(xdg.UserDirs.Music, "TrackFetch"))

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		YouTubeAPIKey:    strings.TrimSpace(getEnv("YOUTUBE_API_KEY", "")),
		MaxResults:       getEnvInt("MAX_RESULTS", 15),
		SearchRatePerSec: getEnvFloat("SEARCH_RATE_PER_SEC", 5),
		SearchBurst:      getEnvInt("SEARCH_BURST", 1),
		SpotifyID:        getEnv("SPOTIFY_ID", ""),
		SpotifySecret:    getEnv("SPOTIFY_SECRET", ""),
		Workers:          getEnvInt("WORKERS", 1),
		BatchTimeout:     getEnvDuration("BATCH_TIMEOUT", 0),
		OutputDir:        outputDir,
		AudioFormat:      strings.ToLower(getEnv("AUDIO_FORMAT", "mp3")),
		Materializer:     strings.ToLower(getEnv("MATERIALIZER", MaterializerYTDLP)),
		YTDLPPath:        getEnv("YTDLP_PATH", "yt-dlp"),
		FFmpegPath:       getEnv("FFMPEG_PATH", "ffmpeg"),
		DBPath:           getEnv("DB_PATH", filepath.Join(outputDir, "trackfetch.db")),
		TagOutput:        getEnvBool("TAG_OUTPUT", true),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
		ScoringFile:      getEnv("SCORING_FILE", ""),
		Scoring:          matching.DefaultScoringConfig(),
	}

	if cfg.ScoringFile != "" {
		scoring, err := LoadScoring(cfg.ScoringFile)
		if err != nil {
			return nil, err
		}
		cfg.Scoring = scoring
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadScoring reads a TOML file and overlays it on the default scoring
// configuration. Keys absent from the file keep their defaults.
func LoadScoring(path string) (matching.ScoringConfig, error) {
	scoring := matching.DefaultScoringConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return scoring, fmt.Errorf("read scoring file: %w", err)
	}
	if err := toml.Unmarshal(data, &scoring); err != nil {
		return scoring, fmt.Errorf("%w: parse scoring file %s: %v", domain.ErrInvalidConfig, path, err)
	}
	if err := scoring.Validate(); err != nil {
		return scoring, fmt.Errorf("scoring file %s: %w", path, err)
	}
	return scoring, nil
}

// Validate checks value ranges. Credentials are checked separately by
// RequireSearchCredentials so that commands that never search can run
// without them.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("%w: WORKERS must be at least 1, got %d", domain.ErrInvalidConfig, c.Workers)
	}
	if c.MaxResults < 1 {
		return fmt.Errorf("%w: MAX_RESULTS must be at least 1, got %d", domain.ErrInvalidConfig, c.MaxResults)
	}
	if c.SearchRatePerSec < 0 {
		return fmt.Errorf("%w: SEARCH_RATE_PER_SEC must not be negative", domain.ErrInvalidConfig)
	}
	switch c.Materializer {
	case MaterializerYTDLP, MaterializerNative, MaterializerDryRun:
	default:
		return fmt.Errorf("%w: unknown MATERIALIZER %q", domain.ErrInvalidConfig, c.Materializer)
	}
	if c.AudioFormat == "" {
		return fmt.Errorf("%w: AUDIO_FORMAT must not be empty", domain.ErrInvalidConfig)
	}
	return c.Scoring.Validate()
}

// RequireSearchCredentials reports ErrMissingCredentials when no search API
// key is configured.
func (c *Config) RequireSearchCredentials() error {
	if c.YouTubeAPIKey == "" {
		return fmt.Errorf("%w: YOUTUBE_API_KEY is not set", domain.ErrMissingCredentials)
	}
	return nil
}

// HasSpotify reports whether Spotify client credentials are configured.
func (c *Config) HasSpotify() bool {
	return c.SpotifyID != "" && c.SpotifySecret != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return d
}
