package buildCFG

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
)

type ServerConfig struct {
	Port string
}

type RabbitConfig struct {
	Url      string
	Exchange string
	Queue    string
}

type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Password string
}

// AppConfig holds scheduling knobs: the display timezone, how far ahead
// occurrences are expanded, how long a waitlist hold lasts, and the local
// hour reminders go out.
type AppConfig struct {
	Location       *time.Location
	WindowDays     int
	ClaimHoldHours int
	ReminderHour   int
}

func BuildServerConfig(cfg *config.Config, log *zerolog.Logger) ServerConfig {
	port := cfg.GetString("server.port")
	if port == "" {
		port = "8080"
		log.Warn().Msg("server.port not set, defaulting to 8080")
	}
	return ServerConfig{Port: port}
}

func BuildDBConfig(cfg *config.Config, log *zerolog.Logger) (string, []string, *dbpg.Options, error) {
	masterDSN := cfg.GetString("database.master_dsn")
	if masterDSN == "" {
		return "", nil, nil, fmt.Errorf("database.master_dsn is required")
	}

	var slaveDSNs []string
	if slave := cfg.GetString("database.slave_dsn"); slave != "" {
		slaveDSNs = append(slaveDSNs, slave)
	}

	maxOpen := cfg.GetInt("database.max_open_conns")
	if maxOpen <= 0 {
		maxOpen = 10
	}
	maxIdle := cfg.GetInt("database.max_idle_conns")
	if maxIdle <= 0 {
		maxIdle = 5
	}
	lifetimeMin := cfg.GetInt("database.conn_max_lifetime_minutes")
	if lifetimeMin <= 0 {
		lifetimeMin = 30
	}

	opts := &dbpg.Options{
		MaxOpenConns:    maxOpen,
		MaxIdleConns:    maxIdle,
		ConnMaxLifetime: time.Duration(lifetimeMin) * time.Minute,
	}

	log.Info().Int("slaves", len(slaveDSNs)).Msg("database config built")
	return masterDSN, slaveDSNs, opts, nil
}

func BuildRabbitConfig(cfg *config.Config, log *zerolog.Logger) (RabbitConfig, error) {
	rc := RabbitConfig{
		Url:      cfg.GetString("rabbit.url"),
		Exchange: cfg.GetString("rabbit.exchange"),
		Queue:    cfg.GetString("rabbit.queue"),
	}
	if rc.Url == "" {
		return rc, fmt.Errorf("rabbit.url is required")
	}
	if rc.Exchange == "" {
		rc.Exchange = "stagedoor.notify.delayed"
	}
	if rc.Queue == "" {
		rc.Queue = "stagedoor.notify"
	}
	return rc, nil
}

func BuildSMTPConfig(cfg *config.Config, log *zerolog.Logger) SMTPConfig {
	sc := SMTPConfig{
		Host:     cfg.GetString("smtp.host"),
		Port:     cfg.GetInt("smtp.port"),
		From:     cfg.GetString("smtp.from"),
		Password: cfg.GetString("smtp.password"),
	}
	if sc.Host == "" {
		log.Warn().Msg("smtp.host not set, emails will be skipped")
	}
	if sc.Port <= 0 {
		sc.Port = 587
	}
	return sc
}

func BuildAppConfig(cfg *config.Config, log *zerolog.Logger) (AppConfig, error) {
	tz := cfg.GetString("app.timezone")
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid app.timezone %q: %w", tz, err)
	}

	ac := AppConfig{
		Location:       loc,
		WindowDays:     cfg.GetInt("app.window_days"),
		ClaimHoldHours: cfg.GetInt("app.claim_hold_hours"),
		ReminderHour:   cfg.GetInt("app.reminder_hour"),
	}
	if ac.WindowDays <= 0 {
		ac.WindowDays = 90
	}
	if ac.ClaimHoldHours <= 0 {
		ac.ClaimHoldHours = 48
	}
	if ac.ReminderHour <= 0 {
		ac.ReminderHour = 9
	}

	log.Info().Str("timezone", tz).Int("window_days", ac.WindowDays).Msg("app config built")
	return ac, nil
}
