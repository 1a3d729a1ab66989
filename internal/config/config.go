package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env                string        `mapstructure:"ENV"`
	Port               string        `mapstructure:"PORT"`
	DatabaseURL        string        `mapstructure:"DATABASE_URL"`
	AdminKey           string        `mapstructure:"ADMIN_KEY"`
	CORSAllowed        string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout     time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	AgentRoutes        string        `mapstructure:"AGENT_ROUTES"`
	DefaultDestination string        `mapstructure:"DEFAULT_DESTINATION"`
	DedupWindowRows    int           `mapstructure:"DEDUP_WINDOW_ROWS"`
	WriteMaxAttempts   int           `mapstructure:"WRITE_MAX_ATTEMPTS"`
	WriteBaseDelay     time.Duration `mapstructure:"WRITE_BASE_DELAY"`
	WriteMaxDelay      time.Duration `mapstructure:"WRITE_MAX_DELAY"`
	VapiURL            string        `mapstructure:"VAPI_URL"`
	VapiToken          string        `mapstructure:"VAPI_TOKEN"`
	VapiPhoneID        string        `mapstructure:"VAPI_PHONE_ID"`
	VapiAssistantID    string        `mapstructure:"VAPI_ASSISTANT_ID"`
	CallsPerBatch      int           `mapstructure:"CALLS_PER_BATCH"`
	BatchInterval      time.Duration `mapstructure:"BATCH_INTERVAL"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("DEFAULT_DESTINATION", "calls_unrouted")
	v.SetDefault("DEDUP_WINDOW_ROWS", 500)
	v.SetDefault("WRITE_MAX_ATTEMPTS", 5)
	v.SetDefault("WRITE_BASE_DELAY", "500ms")
	v.SetDefault("WRITE_MAX_DELAY", "15s")
	v.SetDefault("VAPI_URL", "https://api.vapi.ai")
	v.SetDefault("CALLS_PER_BATCH", 5)
	v.SetDefault("BATCH_INTERVAL", "5m")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
