package settings

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
	_ "time/tzdata" // TIMEZONE must validate on hosts without zoneinfo

	"github.com/joho/godotenv"

	ferrors "git.home.luguber.info/inful/tgbot/internal/foundation/errors"
)

// Lookup returns the value of an environment variable and whether it is set.
type Lookup func(key string) (string, bool)

// Defaults for optional variables.
const (
	DefaultBotMode      = ModePolling
	DefaultAdminCommand = "pusher"
	DefaultTimezone     = "Europe/Warsaw"
	DefaultDBURL        = "sqlite+aiosqlite:///./data/bot.db"
	DefaultLogFile      = "logs/bot.log"
	DefaultLogMaxSize   = 10 * 1024 * 1024
	DefaultRedisURL     = "redis://localhost:6379/0"
	DefaultContactInfo  = "Administrator"
)

// Variables lists every environment variable Parse reads.
var Variables = []string{
	"BOT_TOKEN", "BOT_MODE", "ADMIN_USERS", "OWNER_ID", "ADMIN_COMMAND",
	"TIMEZONE", "DEFAULT_INTERVAL", "DST_SAFE_MODE",
	"DB_URL", "DB_POOL_SIZE", "DB_MAX_OVERFLOW",
	"ENC_MASTER_KEY", "SESSION_TIMEOUT", "MAX_SESSIONS_PER_USER",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "FLOOD_CONTROL_THRESHOLD", "FLOOD_CONTROL_WINDOW",
	"WEBHOOK_HOST", "WEBHOOK_PORT", "WEBHOOK_PATH", "WEBHOOK_URL",
	"TLS_CERT_PATH", "TLS_KEY_PATH",
	"LOG_LEVEL", "LOG_FILE", "LOG_MAX_SIZE", "LOG_BACKUP_COUNT",
	"REDIS_URL", "REDIS_ENABLED",
	"TELEMETRY_ENABLED", "HEALTH_CHECK_INTERVAL",
	"DEBUG", "TESTING",
	"CONTACT_INFO",
}

// Load reads envFile (if it exists) and the process environment, then parses
// and validates the result.
func Load(envFile string) (*Settings, error) {
	fileValues := map[string]string{}
	if envFile != "" {
		values, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileValues = values
		case os.IsNotExist(err):
			// no file: process environment only
		default:
			return nil, ferrors.ConfigError("read environment file").
				WithCause(err).
				WithContext("path", envFile).
				Build()
		}
	}
	return Parse(Chain(os.LookupEnv, MapLookup(fileValues)))
}

// MapLookup adapts a map to Lookup.
func MapLookup(values map[string]string) Lookup {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

// Chain returns the first non-empty value found across lookups.
func Chain(lookups ...Lookup) Lookup {
	return func(key string) (string, bool) {
		for _, l := range lookups {
			if v, ok := l(key); ok && strings.TrimSpace(v) != "" {
				return v, true
			}
		}
		return "", false
	}
}

// Parse builds Settings from lookup and validates them.
func Parse(lookup Lookup) (*Settings, error) {
	r := &reader{lookup: lookup}

	s := &Settings{
		BotToken:     r.required("BOT_TOKEN"),
		BotMode:      BotMode(r.oneOf("BOT_MODE", string(DefaultBotMode), string(ModePolling), string(ModeWebhook))),
		AdminUsers:   r.idList("ADMIN_USERS"),
		OwnerID:      r.optionalInt64("OWNER_ID"),
		AdminCommand: r.str("ADMIN_COMMAND", DefaultAdminCommand),

		Timezone:        r.location("TIMEZONE", DefaultTimezone),
		DefaultInterval: r.seconds("DEFAULT_INTERVAL", 300),
		DSTSafeMode:     r.boolean("DST_SAFE_MODE", true),

		DBURL:         r.str("DB_URL", DefaultDBURL),
		DBPoolSize:    r.integer("DB_POOL_SIZE", 10),
		DBMaxOverflow: r.integer("DB_MAX_OVERFLOW", 20),

		EncMasterKey:       r.required("ENC_MASTER_KEY"),
		SessionTimeout:     r.seconds("SESSION_TIMEOUT", 3600),
		MaxSessionsPerUser: r.integer("MAX_SESSIONS_PER_USER", 5),

		RateLimitRPS:          r.float("RATE_LIMIT_RPS", 1.0),
		RateLimitBurst:        r.integer("RATE_LIMIT_BURST", 5),
		FloodControlThreshold: r.integer("FLOOD_CONTROL_THRESHOLD", 10),
		FloodControlWindow:    r.seconds("FLOOD_CONTROL_WINDOW", 60),

		WebhookHost: r.str("WEBHOOK_HOST", "localhost"),
		WebhookPort: r.integer("WEBHOOK_PORT", 8443),
		WebhookPath: r.str("WEBHOOK_PATH", "/webhook"),
		WebhookURL:  r.str("WEBHOOK_URL", ""),

		TLSCertPath: r.str("TLS_CERT_PATH", "certs/cert.pem"),
		TLSKeyPath:  r.str("TLS_KEY_PATH", "certs/private.key"),

		LogLevel: LogLevel(r.oneOf("LOG_LEVEL", string(LevelInfo),
			string(LevelDebug), string(LevelInfo), string(LevelWarning), string(LevelError), string(LevelCritical))),
		LogFile:        r.str("LOG_FILE", DefaultLogFile),
		LogMaxSize:     int64(r.integer("LOG_MAX_SIZE", DefaultLogMaxSize)),
		LogBackupCount: r.integer("LOG_BACKUP_COUNT", 5),

		RedisURL:     r.str("REDIS_URL", DefaultRedisURL),
		RedisEnabled: r.boolean("REDIS_ENABLED", false),

		TelemetryEnabled:    r.boolean("TELEMETRY_ENABLED", true),
		HealthCheckInterval: r.seconds("HEALTH_CHECK_INTERVAL", 300),

		Debug:   r.boolean("DEBUG", false),
		Testing: r.boolean("TESTING", false),

		ContactInfo: r.str("CONTACT_INFO", DefaultContactInfo),
	}
	if r.err != nil {
		return nil, r.err
	}

	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) validate() error {
	if utf8.RuneCountInString(s.EncMasterKey) < MinMasterKeyLength {
		return invalid("ENC_MASTER_KEY", fmt.Sprintf("ENC_MASTER_KEY must be at least %d characters", MinMasterKeyLength))
	}
	if s.IsWebhookMode() && s.WebhookURL == "" {
		return invalid("WEBHOOK_URL", "WEBHOOK_URL is required in webhook mode")
	}
	if s.WebhookPort < 1 || s.WebhookPort > 65535 {
		return invalid("WEBHOOK_PORT", "WEBHOOK_PORT must be between 1 and 65535")
	}
	if !strings.HasPrefix(s.WebhookPath, "/") {
		return invalid("WEBHOOK_PATH", "WEBHOOK_PATH must start with /")
	}
	if s.LogMaxSize <= 0 {
		return invalid("LOG_MAX_SIZE", "LOG_MAX_SIZE must be positive")
	}
	if s.LogBackupCount < 0 {
		return invalid("LOG_BACKUP_COUNT", "LOG_BACKUP_COUNT must not be negative")
	}

	if s.OwnerID != nil && *s.OwnerID != 0 && !s.IsAdmin(*s.OwnerID) {
		s.AdminUsers = append([]int64{*s.OwnerID}, s.AdminUsers...)
	}
	return nil
}

func invalid(variable, msg string) error {
	return ferrors.ValidationError(msg).
		WithContext("variable", variable).
		Build()
}

// reader records the first parse failure and returns zero values afterwards.
type reader struct {
	lookup Lookup
	err    error
}

func (r *reader) get(key string) (string, bool) {
	if r.err != nil {
		return "", false
	}
	v, ok := r.lookup(key)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (r *reader) fail(key, msg string, cause error) {
	if r.err != nil {
		return
	}
	b := ferrors.ValidationError(msg).WithContext("variable", key)
	if cause != nil {
		b = b.WithCause(cause)
	}
	r.err = b.Build()
}

func (r *reader) str(key, def string) string {
	if v, ok := r.get(key); ok {
		return v
	}
	return def
}

func (r *reader) required(key string) string {
	v, ok := r.get(key)
	if !ok {
		r.fail(key, key+" is required", nil)
	}
	return v
}

func (r *reader) oneOf(key, def string, allowed ...string) string {
	v, ok := r.get(key)
	if !ok {
		return def
	}
	if slices.Contains(allowed, v) {
		return v
	}
	r.fail(key, fmt.Sprintf("%s must be one of %s", key, strings.Join(allowed, ", ")), nil)
	return def
}

func (r *reader) integer(key string, def int) int {
	v, ok := r.get(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, key+" must be an integer", err)
		return def
	}
	return n
}

func (r *reader) optionalInt64(key string) *int64 {
	v, ok := r.get(key)
	if !ok {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		r.fail(key, key+" must be an integer", err)
		return nil
	}
	return &n
}

func (r *reader) float(key string, def float64) float64 {
	v, ok := r.get(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(key, key+" must be a number", err)
		return def
	}
	return f
}

func (r *reader) seconds(key string, def int) time.Duration {
	return time.Duration(r.integer(key, def)) * time.Second
}

// boolean accepts the usual env-file spellings (yes/no, on/off, 1/0, t/f).
func (r *reader) boolean(key string, def bool) bool {
	v, ok := r.get(key)
	if !ok {
		return def
	}
	switch strings.ToLower(v) {
	case "y", "yes", "t", "true", "on", "1":
		return true
	case "n", "no", "f", "false", "off", "0":
		return false
	}
	r.fail(key, key+" must be a boolean", nil)
	return def
}

func (r *reader) location(key, def string) *time.Location {
	name := r.str(key, def)
	if r.err != nil {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		r.fail(key, key+" must be an IANA time zone", err)
		return time.UTC
	}
	return loc
}

// idList parses a comma separated list, skipping entries that are not plain
// non-negative integers.
func (r *reader) idList(key string) []int64 {
	v, ok := r.get(key)
	if !ok {
		return nil
	}
	var ids []int64
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" || strings.TrimLeft(part, "0123456789") != "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
