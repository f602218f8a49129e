package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/videotube/internal/logger"
)

const (
	defaultListenAddr     = "localhost:8000"
	defaultLoggingLevel   = logger.LevelInfo
	defaultEnvironment    = logger.EnvProduction
	defaultAccessTTL      = 15 * time.Minute
	defaultRefreshTTL     = 10 * 24 * time.Hour
	defaultLoginRateLimit = 10
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the videotube service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Secrets to sign access and refresh tokens. Required and must differ
	AccessSecret  string
	RefreshSecret string

	// Token lifetimes
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Environment
	Environment string

	// Origins allowed to call API from browser
	CORSOrigins []string

	// Media storage. Uploads are rejected if bucket is not set
	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3PublicBaseURL string

	// Login attempts per minute allowed from one IP, 0 disables limit
	LoginRateLimit int
}

func NewConfig() *Config {
	return &Config{
		LogLevel:       defaultLoggingLevel,
		ListenAddr:     defaultListenAddr,
		Environment:    defaultEnvironment,
		AccessTTL:      defaultAccessTTL,
		RefreshTTL:     defaultRefreshTTL,
		LoginRateLimit: defaultLoginRateLimit,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = value
			}
			return nil
		}
	}
	setDuration := func(o *time.Duration) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			d, err := parseDuration(value)
			if err != nil {
				return err
			}
			*o = d
			return nil
		}
	}
	setInt := func(o *int) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			n, err := strconv.Atoi(value)
			if err != nil {
				return err
			}
			*o = n
			return nil
		}
	}
	setList := func(o *[]string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = splitList(value)
			}
			return nil
		}
	}

	envMap := map[string]func(string) error{
		"RUN_ADDRESS":          setString(&c.ListenAddr),
		"DATABASE_URI":         setString(&c.DatabaseDSN),
		"ACCESS_TOKEN_SECRET":  setString(&c.AccessSecret),
		"REFRESH_TOKEN_SECRET": setString(&c.RefreshSecret),
		"ACCESS_TOKEN_EXPIRY":  setDuration(&c.AccessTTL),
		"REFRESH_TOKEN_EXPIRY": setDuration(&c.RefreshTTL),
		"LOG_LEVEL":            setString(&c.LogLevel),
		"ENVIRONMENT":          setString(&c.Environment),
		"CORS_ORIGIN":          setList(&c.CORSOrigins),
		"S3_BUCKET":            setString(&c.S3Bucket),
		"S3_REGION":            setString(&c.S3Region),
		"S3_ENDPOINT":          setString(&c.S3Endpoint),
		"S3_PUBLIC_BASE_URL":   setString(&c.S3PublicBaseURL),
		"LOGIN_RATE_LIMIT":     setInt(&c.LoginRateLimit),
	}

	var errs []error
	for key, parseFn := range envMap {
		if err := parseFn(getenv(key)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}

	return errors.Join(errs...)
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("videotube", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVar(&c.AccessSecret, "access-secret", c.AccessSecret, "Access token secret")
	fs.StringVar(&c.RefreshSecret, "refresh-secret", c.RefreshSecret, "Refresh token secret")
	fs.Var(&durationValue{&c.AccessTTL}, "access-expiry", "Access token lifetime (15m, 1h, 1d)")
	fs.Var(&durationValue{&c.RefreshTTL}, "refresh-expiry", "Refresh token lifetime (1h, 10d)")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")
	fs.StringSliceVar(&c.CORSOrigins, "cors-origin", c.CORSOrigins, "Allowed CORS origins, comma separated")
	fs.StringVar(&c.S3Bucket, "s3-bucket", c.S3Bucket, "S3 bucket for media files")
	fs.StringVar(&c.S3Region, "s3-region", c.S3Region, "S3 region")
	fs.StringVar(&c.S3Endpoint, "s3-endpoint", c.S3Endpoint, "S3 compatible endpoint")
	fs.StringVar(&c.S3PublicBaseURL, "s3-public-url", c.S3PublicBaseURL, "Public base url of media files")
	fs.IntVar(&c.LoginRateLimit, "login-rate-limit", c.LoginRateLimit, "Login attempts per minute from one IP, 0 to disable")

	return fs.Parse(args)
}

// Go durations plus whole days suffix, e.g. "10d". Must be positive
func parseDuration(s string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %q", s)
	}
	return d, nil
}

func splitList(s string) []string {
	var items []string
	for item := range strings.SplitSeq(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// pflag.Value accepting day suffix
type durationValue struct {
	d *time.Duration
}

func (v *durationValue) Set(s string) error {
	d, err := parseDuration(s)
	if err != nil {
		return err
	}
	*v.d = d
	return nil
}

func (v *durationValue) String() string {
	if v.d == nil {
		return ""
	}
	return v.d.String()
}

func (v *durationValue) Type() string {
	return "duration"
}
