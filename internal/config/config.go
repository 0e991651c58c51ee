package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr      string
	PublicBaseURL string

	OxiDBHost string
	OxiDBPort int
	PoolSize  int

	JWTSecret string
	JWTTTL    time.Duration

	AdminEmail string
	AdminPass  string

	Routing RoutingConfig
	Log     LogConfig
	Mail    MailConfig
	Sheets  SheetsConfig
}

type RoutingConfig struct {
	// Threshold is the default score (1-5) at which a respondent is sent to
	// the public review site.
	Threshold float64
	// CriticalThreshold marks a response as critical at or below this score.
	CriticalThreshold float64
}

type LogConfig struct {
	Level    string
	Format   string
	GelfAddr string
}

type MailConfig struct {
	Provider  string
	Endpoint  string
	APIKey    string
	From      string
	SupportTo string
}

type SheetsConfig struct {
	CredentialsFile string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("public.base_url", "http://localhost:8080")
	v.SetDefault("oxidb.host", "127.0.0.1")
	v.SetDefault("oxidb.port", 4444)
	v.SetDefault("oxidb.pool_size", 3)
	v.SetDefault("jwt.secret", "grove-dev-secret-change-me")
	v.SetDefault("jwt.ttl", "24h")
	v.SetDefault("admin.email", "admin@grove.local")
	v.SetDefault("admin.password", "admin1234")
	v.SetDefault("routing.threshold", 4)
	v.SetDefault("routing.critical_threshold", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.gelf_addr", "")
	v.SetDefault("mail.provider", "log")
	v.SetDefault("mail.endpoint", "https://api.resend.com/emails")
	v.SetDefault("mail.api_key", "")
	v.SetDefault("mail.from", "Grove <noreply@grove.local>")
	v.SetDefault("mail.support_to", "support@grove.local")
	v.SetDefault("sheets.credentials_file", "")
}

// Load reads grove.yaml (from path when given, else ./ and ./config) and
// GROVE_* environment variables. A missing config file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("grove")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("grove")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	cfg := &Config{
		HTTPAddr:      v.GetString("http.addr"),
		PublicBaseURL: strings.TrimRight(v.GetString("public.base_url"), "/"),
		OxiDBHost:     v.GetString("oxidb.host"),
		OxiDBPort:     v.GetInt("oxidb.port"),
		PoolSize:      v.GetInt("oxidb.pool_size"),
		JWTSecret:     v.GetString("jwt.secret"),
		JWTTTL:        v.GetDuration("jwt.ttl"),
		AdminEmail:    v.GetString("admin.email"),
		AdminPass:     v.GetString("admin.password"),
		Routing: RoutingConfig{
			Threshold:         v.GetFloat64("routing.threshold"),
			CriticalThreshold: v.GetFloat64("routing.critical_threshold"),
		},
		Log: LogConfig{
			Level:    v.GetString("log.level"),
			Format:   v.GetString("log.format"),
			GelfAddr: v.GetString("log.gelf_addr"),
		},
		Mail: MailConfig{
			Provider:  v.GetString("mail.provider"),
			Endpoint:  v.GetString("mail.endpoint"),
			APIKey:    v.GetString("mail.api_key"),
			From:      v.GetString("mail.from"),
			SupportTo: v.GetString("mail.support_to"),
		},
		Sheets: SheetsConfig{
			CredentialsFile: v.GetString("sheets.credentials_file"),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.PoolSize < 1 {
		return fmt.Errorf("config: oxidb.pool_size must be positive, got %d", c.PoolSize)
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("config: jwt.ttl must be positive, got %s", c.JWTTTL)
	}
	if c.Routing.Threshold < 1 || c.Routing.Threshold > 5 {
		return fmt.Errorf("config: routing.threshold must be within 1-5, got %v", c.Routing.Threshold)
	}
	if c.Routing.CriticalThreshold >= c.Routing.Threshold {
		return errors.New("config: routing.critical_threshold must be below routing.threshold")
	}
	switch c.Mail.Provider {
	case "log", "http":
	default:
		return fmt.Errorf("config: unknown mail.provider %q", c.Mail.Provider)
	}
	return nil
}
