package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreRedis  = "redis"
	StoreMemory = "memory"

	ProviderBetsAPI     = "betsapi"
	ProviderAPIFootball = "apifootball"
)

type Config struct {
	Env  string
	Port string

	StoreDriver string
	RedisURL    string

	OddsProvider      string
	OddsBaseURL       string
	OddsAPIToken      string
	OddsSportID       string
	OddsUpcomingDays  int
	OddsCacheTTL      time.Duration
	OddsTimeout       time.Duration
	OddsLeagueDeny    []string
	FootballLeagues   []int
	FootballBookmaker int
	FootballSeason    int

	AdminUsername string
	AdminPassword string
	JWTSecret     string
	JWTExpiry     time.Duration

	BetRateLimit int
}

var defaultBaseURLs = map[string]string{
	ProviderBetsAPI:     "https://api.b365api.com",
	ProviderAPIFootball: "https://v3.football.api-sports.io",
}

// Load reads configuration from the environment. The caller is expected to
// have loaded any .env file beforehand.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("ENV", "development")
	v.SetDefault("PORT", "3000")
	v.SetDefault("STORE_DRIVER", StoreRedis)
	v.SetDefault("ODDS_PROVIDER", ProviderBetsAPI)
	v.SetDefault("ODDS_SPORT_ID", "1")
	v.SetDefault("ODDS_UPCOMING_DAYS", 7)
	v.SetDefault("ODDS_CACHE_TTL", "10m")
	v.SetDefault("ODDS_TIMEOUT", "10s")
	v.SetDefault("ODDS_LEAGUE_DENYLIST", "esoccer,mins play")
	v.SetDefault("APIFOOTBALL_LEAGUES", "39,140,135,78,61,2,10,188")
	v.SetDefault("APIFOOTBALL_BOOKMAKER", 1)
	v.SetDefault("APIFOOTBALL_SEASON", 0)
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("JWT_EXPIRY", "24h")
	v.SetDefault("BET_RATE_LIMIT", 30)

	cfg := &Config{
		Env:               v.GetString("ENV"),
		Port:              v.GetString("PORT"),
		StoreDriver:       strings.ToLower(v.GetString("STORE_DRIVER")),
		RedisURL:          v.GetString("REDIS_URL"),
		OddsProvider:      strings.ToLower(v.GetString("ODDS_PROVIDER")),
		OddsBaseURL:       v.GetString("ODDS_BASE_URL"),
		OddsAPIToken:      v.GetString("ODDS_API_TOKEN"),
		OddsSportID:       v.GetString("ODDS_SPORT_ID"),
		OddsUpcomingDays:  v.GetInt("ODDS_UPCOMING_DAYS"),
		OddsCacheTTL:      v.GetDuration("ODDS_CACHE_TTL"),
		OddsTimeout:       v.GetDuration("ODDS_TIMEOUT"),
		OddsLeagueDeny:    splitList(v.GetString("ODDS_LEAGUE_DENYLIST")),
		FootballBookmaker: v.GetInt("APIFOOTBALL_BOOKMAKER"),
		FootballSeason:    v.GetInt("APIFOOTBALL_SEASON"),
		AdminUsername:     v.GetString("ADMIN_USERNAME"),
		AdminPassword:     v.GetString("ADMIN_PASSWORD"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		JWTExpiry:         v.GetDuration("JWT_EXPIRY"),
		BetRateLimit:      v.GetInt("BET_RATE_LIMIT"),
	}

	leagues, err := parseIntList(v.GetString("APIFOOTBALL_LEAGUES"))
	if err != nil {
		return nil, fmt.Errorf("invalid APIFOOTBALL_LEAGUES: %w", err)
	}
	cfg.FootballLeagues = leagues

	if cfg.OddsBaseURL == "" {
		cfg.OddsBaseURL = defaultBaseURLs[cfg.OddsProvider]
	}
	cfg.OddsBaseURL = strings.TrimRight(cfg.OddsBaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	var problems []string

	switch c.StoreDriver {
	case StoreRedis:
		if c.RedisURL == "" {
			problems = append(problems, "REDIS_URL is required when STORE_DRIVER=redis")
		}
	case StoreMemory:
	default:
		problems = append(problems, fmt.Sprintf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	if _, ok := defaultBaseURLs[c.OddsProvider]; !ok {
		problems = append(problems, fmt.Sprintf("unknown ODDS_PROVIDER %q", c.OddsProvider))
	}
	if c.OddsAPIToken == "" {
		problems = append(problems, "ODDS_API_TOKEN is required")
	}
	if c.Port == "" {
		problems = append(problems, "PORT is required")
	}
	if c.OddsCacheTTL < 0 {
		problems = append(problems, "ODDS_CACHE_TTL must not be negative")
	}
	if c.OddsUpcomingDays < 0 {
		problems = append(problems, "ODDS_UPCOMING_DAYS must not be negative")
	}
	if c.AdminPassword != "" && c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required when ADMIN_PASSWORD is set")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// AdminAuthEnabled is false when no admin password is configured, which
// leaves the admin routes open.
func (c *Config) AdminAuthEnabled() bool {
	return c.AdminPassword != ""
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseIntList(raw string) ([]int, error) {
	var out []int
	for _, part := range splitList(raw) {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", part)
		}
		out = append(out, n)
	}
	return out, nil
}
