package settings

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"
)

// BotMode selects how the bot receives updates.
type BotMode string

const (
	ModePolling BotMode = "polling"
	ModeWebhook BotMode = "webhook"
)

// LogLevel uses the level names the bot's log configuration expects.
type LogLevel string

const (
	LevelDebug    LogLevel = "DEBUG"
	LevelInfo     LogLevel = "INFO"
	LevelWarning  LogLevel = "WARNING"
	LevelError    LogLevel = "ERROR"
	LevelCritical LogLevel = "CRITICAL"
)

// Slog maps the level onto slog. CRITICAL sits above slog.LevelError.
func (l LogLevel) Slog() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarning:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	case LevelCritical:
		return slog.LevelError + 4
	default:
		return slog.LevelInfo
	}
}

// MinMasterKeyLength is the shortest accepted ENC_MASTER_KEY.
const MinMasterKeyLength = 32

// Settings mirrors the bot's environment variables.
type Settings struct {
	BotToken string
	BotMode  BotMode

	AdminUsers   []int64
	OwnerID      *int64
	AdminCommand string

	Timezone        *time.Location
	DefaultInterval time.Duration
	DSTSafeMode     bool

	DBURL         string
	DBPoolSize    int
	DBMaxOverflow int

	EncMasterKey       string
	SessionTimeout     time.Duration
	MaxSessionsPerUser int

	RateLimitRPS          float64
	RateLimitBurst        int
	FloodControlThreshold int
	FloodControlWindow    time.Duration

	WebhookHost string
	WebhookPort int
	WebhookPath string
	WebhookURL  string

	TLSCertPath string
	TLSKeyPath  string

	LogLevel       LogLevel
	LogFile        string
	LogMaxSize     int64
	LogBackupCount int

	RedisURL     string
	RedisEnabled bool

	TelemetryEnabled    bool
	HealthCheckInterval time.Duration

	Debug   bool
	Testing bool

	ContactInfo string
}

// IsDevelopment reports whether DEBUG or TESTING is set.
func (s *Settings) IsDevelopment() bool {
	return s.Debug || s.Testing
}

func (s *Settings) IsWebhookMode() bool {
	return s.BotMode == ModeWebhook
}

// FullWebhookURL joins WEBHOOK_URL and WEBHOOK_PATH. Empty in polling mode.
func (s *Settings) FullWebhookURL() string {
	if !s.IsWebhookMode() {
		return ""
	}
	return strings.TrimRight(s.WebhookURL, "/") + s.WebhookPath
}

func (s *Settings) IsAdmin(userID int64) bool {
	return slices.Contains(s.AdminUsers, userID)
}

func (s *Settings) IsOwner(userID int64) bool {
	return s.OwnerID != nil && *s.OwnerID == userID
}

// AdminUsersString renders the admin list as "1, 2, 3".
func (s *Settings) AdminUsersString() string {
	parts := make([]string, len(s.AdminUsers))
	for i, id := range s.AdminUsers {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}

// LogValue keeps secrets out of log output.
func (s *Settings) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("bot_token", redact(s.BotToken)),
		slog.String("bot_mode", string(s.BotMode)),
		slog.String("admin_users", s.AdminUsersString()),
		slog.String("timezone", s.Timezone.String()),
		slog.String("db_url", s.DBURL),
		slog.String("enc_master_key", redact(s.EncMasterKey)),
		slog.String("webhook_url", s.FullWebhookURL()),
		slog.String("log_level", string(s.LogLevel)),
		slog.String("log_file", s.LogFile),
		slog.Bool("redis_enabled", s.RedisEnabled),
		slog.Bool("telemetry_enabled", s.TelemetryEnabled),
	)
}

func (s *Settings) String() string {
	return fmt.Sprintf("Settings{mode=%s admins=[%s] db=%s token=%s}",
		s.BotMode, s.AdminUsersString(), s.DBURL, redact(s.BotToken))
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "***"
}
