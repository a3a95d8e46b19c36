package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppEnv        = "local"
	defaultLogLevel      = "debug"
	defaultAPIBaseURL    = "http://localhost:8000"
	defaultHTTPTimeout   = "30s"
	defaultHTTPRetries   = "1"
	defaultCacheDriver   = "memory"
	defaultCacheTTL      = "5m"
	defaultRedisAddr     = "localhost:6379"
	defaultConsolePort   = "8080"
	defaultConsoleRate   = "120"
	defaultConsoleCORS   = "*"
	defaultMaxVariants   = "3"
	defaultMaxOptions    = "2"
	defaultNotifyChannel = "log"
	defaultLogMongoDB    = "stockdesk"
	defaultReportTZ      = "Local"
)

var (
	loadOnce sync.Once
	loadErr  error

	mu     sync.RWMutex
	values = defaultValues()
)

// Load merges defaults, config/app.json, .env and the process environment,
// in that order of precedence (later wins). It runs once per process.
func Load() error {
	loadOnce.Do(func() {
		loadErr = loadFromFiles("config/app.json", ".env")
	})
	return loadErr
}

func defaultValues() map[string]string {
	return map[string]string{
		"APP_ENV":                 defaultAppEnv,
		"LOG_LEVEL":               defaultLogLevel,
		"API_BASE_URL":            defaultAPIBaseURL,
		"API_TOKEN":               "",
		"HTTP_TIMEOUT":            defaultHTTPTimeout,
		"HTTP_RETRIES":            defaultHTTPRetries,
		"CACHE_DRIVER":            defaultCacheDriver,
		"CACHE_TTL":               defaultCacheTTL,
		"REDIS_ADDR":              defaultRedisAddr,
		"REDIS_PASSWORD":          "",
		"STORAGE_DISK":            "local",
		"STORAGE_LOCAL_ROOT":      ".",
		"CONSOLE_PORT":            defaultConsolePort,
		"CONSOLE_RATE_LIMIT":      defaultConsoleRate,
		"CONSOLE_CORS_ORIGINS":    defaultConsoleCORS,
		"MAX_VARIANTS":            defaultMaxVariants,
		"MAX_OPTIONS_PER_VARIANT": defaultMaxOptions,
		"NOTIFY_CHANNELS":         defaultNotifyChannel,
		"LOG_MONGO_DB":            defaultLogMongoDB,
		"REPORT_TIMEZONE":         defaultReportTZ,
	}
}

func AppEnv() string {
	_ = Load()
	return get("APP_ENV", defaultAppEnv)
}

func LogLevel() string {
	_ = Load()
	return strings.ToLower(get("LOG_LEVEL", defaultLogLevel))
}

// ── Remote API ───────────────────────────────────────────────────────────────

func APIBaseURL() string {
	_ = Load()
	return strings.TrimRight(get("API_BASE_URL", defaultAPIBaseURL), "/")
}

func APIToken() string {
	_ = Load()
	return get("API_TOKEN", "")
}

func HTTPTimeout() time.Duration {
	_ = Load()
	return getDuration("HTTP_TIMEOUT", defaultHTTPTimeout)
}

func HTTPRetries() int {
	_ = Load()
	return getInt("HTTP_RETRIES", defaultHTTPRetries)
}

// ── Cache ────────────────────────────────────────────────────────────────────

func CacheDriver() string {
	_ = Load()

	driver := strings.ToLower(get("CACHE_DRIVER", defaultCacheDriver))
	switch driver {
	case "memory", "redis":
		return driver
	default:
		return defaultCacheDriver
	}
}

func CacheTTL() time.Duration {
	_ = Load()
	return getDuration("CACHE_TTL", defaultCacheTTL)
}

func RedisAddr() string {
	_ = Load()
	return get("REDIS_ADDR", defaultRedisAddr)
}

func RedisPassword() string {
	_ = Load()
	return get("REDIS_PASSWORD", "")
}

// ── Storage ──────────────────────────────────────────────────────────────────

func StorageDefault() string {
	_ = Load()
	return get("STORAGE_DISK", "local")
}

func StorageLocalRoot() string {
	_ = Load()
	return get("STORAGE_LOCAL_ROOT", ".")
}

func StorageS3Bucket() string   { _ = Load(); return get("S3_BUCKET", "") }
func StorageS3Region() string   { _ = Load(); return get("S3_REGION", "us-east-1") }
func StorageS3Key() string      { _ = Load(); return get("S3_KEY", "") }
func StorageS3Secret() string   { _ = Load(); return get("S3_SECRET", "") }
func StorageS3Endpoint() string { _ = Load(); return get("S3_ENDPOINT", "") }

// ── Console, forms, notifications ────────────────────────────────────────────

func ConsolePort() string {
	_ = Load()
	return get("CONSOLE_PORT", defaultConsolePort)
}

// ConsoleRateLimit is the number of console requests allowed per client and
// minute; 0 disables the limiter.
func ConsoleRateLimit() int {
	_ = Load()
	return getInt("CONSOLE_RATE_LIMIT", defaultConsoleRate)
}

// ConsoleCORSOrigins returns the comma-separated CONSOLE_CORS_ORIGINS list.
func ConsoleCORSOrigins() []string {
	_ = Load()
	return splitList(get("CONSOLE_CORS_ORIGINS", defaultConsoleCORS), false)
}

// ConsoleTrustedProxies lists the proxies, as addresses or CIDR ranges, whose
// X-Forwarded-For header the rate limiter believes. Empty by default.
func ConsoleTrustedProxies() []string {
	_ = Load()
	return splitList(get("CONSOLE_TRUSTED_PROXIES", ""), false)
}

func MaxVariants() int {
	_ = Load()
	return getInt("MAX_VARIANTS", defaultMaxVariants)
}

func MaxOptionsPerVariant() int {
	_ = Load()
	return getInt("MAX_OPTIONS_PER_VARIANT", defaultMaxOptions)
}

// NotifyChannels returns the comma-separated NOTIFY_CHANNELS list, e.g. "log,slack".
func NotifyChannels() []string {
	_ = Load()
	return splitList(get("NOTIFY_CHANNELS", defaultNotifyChannel), true)
}

func splitList(s string, lower bool) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if lower {
			item = strings.ToLower(item)
		}
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func SlackWebhookURL() string  { _ = Load(); return get("SLACK_WEBHOOK_URL", "") }
func NotifyWebhookURL() string { _ = Load(); return get("NOTIFY_WEBHOOK_URL", "") }

// NotifyMailTo lists the recipients of the mail channel.
func NotifyMailTo() []string { _ = Load(); return splitList(get("NOTIFY_MAIL_TO", ""), false) }

func LogMongoURI() string { _ = Load(); return get("LOG_MONGO_URI", "") }
func LogMongoDB() string  { _ = Load(); return get("LOG_MONGO_DB", defaultLogMongoDB) }

// ReportLocation is the time zone report date filters are evaluated in.
func ReportLocation() *time.Location {
	_ = Load()
	name := get("REPORT_TIMEZONE", defaultReportTZ)
	if name == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}

// ── Loading ──────────────────────────────────────────────────────────────────

func loadFromFiles(configPath, envPath string) error {
	loaded := defaultValues()

	if err := mergeJSONConfig(configPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	if err := mergeDotEnv(envPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	mergeEnviron(loaded)

	mu.Lock()
	values = loaded
	mu.Unlock()

	return nil
}

func mergeJSONConfig(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(file).Decode(&raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	for key, val := range raw {
		var s string
		switch v := val.(type) {
		case string:
			s = v
		case float64:
			s = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			s = strconv.FormatBool(v)
		default:
			continue
		}

		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(s)
	}

	return nil
}

func mergeDotEnv(path string, out map[string]string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	env, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	for key, value := range env {
		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(value)
	}
	return nil
}

// mergeEnviron lets real environment variables override file values for any
// key the application knows about.
func mergeEnviron(out map[string]string) {
	for key := range defaultValues() {
		if v, ok := os.LookupEnv(key); ok {
			out[key] = v
		}
	}
	for _, key := range []string{"S3_BUCKET", "S3_REGION", "S3_KEY", "S3_SECRET", "S3_ENDPOINT", "S3_URL",
		"STORAGE_URL", "MAX_BODY_BYTES", "CONSOLE_TRUSTED_PROXIES",
		"SLACK_WEBHOOK_URL", "NOTIFY_WEBHOOK_URL", "NOTIFY_MAIL_TO", "LOG_MONGO_URI",
		"MAIL_HOST", "MAIL_PORT", "MAIL_USERNAME", "MAIL_PASSWORD", "MAIL_FROM", "MAIL_FROM_NAME"} {
		if v, ok := os.LookupEnv(key); ok {
			out[key] = v
		}
	}
}

func get(key, fallback string) string {
	mu.RLock()
	defer mu.RUnlock()

	if value := strings.TrimSpace(values[key]); value != "" {
		return value
	}

	return fallback
}

func getInt(key, fallback string) int {
	n, err := strconv.Atoi(get(key, fallback))
	if err != nil {
		n, _ = strconv.Atoi(fallback)
	}
	return n
}

func getDuration(key, fallback string) time.Duration {
	d, err := time.ParseDuration(get(key, fallback))
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

// Get reads any config key by name with an optional fallback.
func Get(key, fallback string) string {
	_ = Load()
	return get(key, fallback)
}

// Set overrides a single key at runtime. CLI flags use it to take precedence
// over files and environment.
func Set(key, value string) {
	_ = Load()
	mu.Lock()
	values[strings.ToUpper(key)] = value
	mu.Unlock()
}
