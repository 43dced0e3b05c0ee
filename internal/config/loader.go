package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the meeting bot.
type Config struct {
	HTTPPort       int
	SQLiteDSN      string
	BotToken       string
	Timezone       string
	// ReminderDays are the day counts before a meeting's start at which
	// per-meeting reminders fire.
	ReminderDays   []int
	AnnounceDays   []int
	AnnounceHour   int
	AnnounceMinute int
	// AnnounceChatID is the digest destination; zero disables the digest.
	AnnounceChatID int64
	LogLevel       string
}

// Location resolves the configured presentation time zone.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Load parses configuration values from the current process environment,
// reading a .env file first when one is present.
//
// The loader applies defaults for optional fields while accumulating invalid
// values so a single run reports every problem at once.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPPort:       8080,
		SQLiteDSN:      "file:meetings.db?_foreign_keys=on",
		Timezone:       "Europe/Berlin",
		ReminderDays:   []int{3, 1},
		AnnounceDays:   []int{1, 15},
		AnnounceHour:   10,
		AnnounceMinute: 0,
		LogLevel:       "info",
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("MEETINGS_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "MEETINGS_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("MEETINGS_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	cfg.BotToken = strings.TrimSpace(os.Getenv("MEETINGS_BOT_TOKEN"))

	if tzName := strings.TrimSpace(os.Getenv("MEETINGS_TIMEZONE")); tzName != "" {
		if _, err := time.LoadLocation(tzName); err != nil {
			invalid = append(invalid, "MEETINGS_TIMEZONE")
		} else {
			cfg.Timezone = tzName
		}
	}

	if daysValue := strings.TrimSpace(os.Getenv("MEETINGS_REMINDER_DAYS")); daysValue != "" {
		days, ok := parseReminderDays(daysValue)
		if !ok {
			invalid = append(invalid, "MEETINGS_REMINDER_DAYS")
		} else {
			cfg.ReminderDays = days
		}
	}

	if daysValue := strings.TrimSpace(os.Getenv("MEETINGS_ANNOUNCE_DAYS")); daysValue != "" {
		days, ok := parseDays(daysValue)
		if !ok {
			invalid = append(invalid, "MEETINGS_ANNOUNCE_DAYS")
		} else {
			cfg.AnnounceDays = days
		}
	}

	if timeValue := strings.TrimSpace(os.Getenv("MEETINGS_ANNOUNCE_TIME")); timeValue != "" {
		hour, minute, ok := parseTimeOfDay(timeValue)
		if !ok {
			invalid = append(invalid, "MEETINGS_ANNOUNCE_TIME")
		} else {
			cfg.AnnounceHour = hour
			cfg.AnnounceMinute = minute
		}
	}

	if chatValue := strings.TrimSpace(os.Getenv("MEETINGS_ANNOUNCE_CHAT_ID")); chatValue != "" {
		chatID, err := strconv.ParseInt(chatValue, 10, 64)
		if err != nil {
			invalid = append(invalid, "MEETINGS_ANNOUNCE_CHAT_ID")
		} else {
			cfg.AnnounceChatID = chatID
		}
	}

	if level := strings.TrimSpace(os.Getenv("MEETINGS_LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func parseReminderDays(value string) ([]int, bool) {
	parts := strings.Split(value, ",")
	days := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		day, err := strconv.Atoi(part)
		if err != nil || day < 1 {
			return nil, false
		}
		days = append(days, day)
	}
	if len(days) == 0 {
		return nil, false
	}
	return days, true
}

func parseDays(value string) ([]int, bool) {
	parts := strings.Split(value, ",")
	days := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		day, err := strconv.Atoi(part)
		if err != nil || day < 1 || day > 31 {
			return nil, false
		}
		days = append(days, day)
	}
	if len(days) == 0 {
		return nil, false
	}
	return days, true
}

func parseTimeOfDay(value string) (int, int, bool) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}
	minute, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}
