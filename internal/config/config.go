package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultConfigPath = "config/local.yaml"

const (
	EnvSandbox    = "sandbox"
	EnvProduction = "production"

	// Daraja only accepts its own test short code in the sandbox.
	SandboxShortCode = "174379"
)

var gatewayBaseURLs = map[string]string{
	EnvSandbox:    "https://sandbox.safaricom.co.ke",
	EnvProduction: "https://api.safaricom.co.ke",
}

type StkPushConfig struct {
	Env          string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer   `yaml:"http_server"`
	GRPCServer   `yaml:"grpc_server"`
	Gateway      `yaml:"gateway"`
	AuditDB      `yaml:"audit_db"`
	Redis        `yaml:"redis"`
	KafkaService `yaml:"kafka-service"`
	LogConfig    `yaml:"log_config"`
	Reconciler   `yaml:"reconciler"`
}

type HTTPServer struct {
	Host            string        `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port            string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"15s"`
	AllowedOrigins  []string      `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" env-default:"*"`
}

type GRPCServer struct {
	Host string `yaml:"host" env:"GRPC_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"GRPC_PORT" env-default:"9090"`
}

type Gateway struct {
	Environment        string        `yaml:"environment" env:"MPESA_ENVIRONMENT" env-default:"sandbox"`
	ConsumerKey        string        `yaml:"consumer_key" env:"MPESA_CONSUMER_KEY"`
	ConsumerSecret     string        `yaml:"consumer_secret" env:"MPESA_CONSUMER_SECRET"`
	BusinessShortCode  string        `yaml:"business_short_code" env:"MPESA_BUSINESS_SHORT_CODE" env-default:"174379"`
	PassKey            string        `yaml:"pass_key" env:"MPESA_PASS_KEY"`
	CallbackURL        string        `yaml:"callback_url" env:"MPESA_CALLBACK_URL"`
	TransactionType    string        `yaml:"transaction_type" env:"MPESA_TRANSACTION_TYPE" env-default:"CustomerPayBillOnline"`
	PartyB             string        `yaml:"party_b" env:"MPESA_PARTY_B"`
	BaseURLOverride    string        `yaml:"base_url" env:"MPESA_BASE_URL"`
	DefaultReference   string        `yaml:"default_reference" env:"MPESA_DEFAULT_REFERENCE" env-default:"Payment"`
	DefaultDescription string        `yaml:"default_description" env:"MPESA_DEFAULT_DESCRIPTION" env-default:"Purchase"`
	AuthTimeout        time.Duration `yaml:"auth_timeout" env:"MPESA_AUTH_TIMEOUT" env-default:"10s"`
	PushTimeout        time.Duration `yaml:"push_timeout" env:"MPESA_PUSH_TIMEOUT" env-default:"15s"`
	QueryTimeout       time.Duration `yaml:"query_timeout" env:"MPESA_QUERY_TIMEOUT" env-default:"10s"`
	PendingResultCode  string        `yaml:"pending_result_code" env:"MPESA_PENDING_RESULT_CODE" env-default:"1032"`
	QueryFallback      bool          `yaml:"query_fallback" env:"MPESA_QUERY_FALLBACK" env-default:"true"`
}

// BaseURL picks the Daraja host for the configured environment.
func (g Gateway) BaseURL() string {
	if g.BaseURLOverride != "" {
		return g.BaseURLOverride
	}
	if u, ok := gatewayBaseURLs[g.Environment]; ok {
		return u
	}
	return gatewayBaseURLs[EnvSandbox]
}

// EffectiveShortCode is the short code sent to the gateway. The sandbox
// always uses the Daraja test short code.
func (g Gateway) EffectiveShortCode() string {
	if g.Environment == EnvSandbox {
		return SandboxShortCode
	}
	return g.BusinessShortCode
}

func (g Gateway) EffectivePartyB() string {
	if g.PartyB != "" && g.Environment != EnvSandbox {
		return g.PartyB
	}
	return g.EffectiveShortCode()
}

type AuditDB struct {
	Dsn            string `yaml:"dsn" env:"AUDIT_DB_DSN"`
	MigrationsPath string `yaml:"migrations_path" env:"AUDIT_DB_MIGRATIONS_PATH"`
}

type Redis struct {
	Addr      string `yaml:"addr" env:"REDIS_ADDR"`
	Password  string `yaml:"password" env:"REDIS_PASSWORD"`
	DB        int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	KeyPrefix string `yaml:"key_prefix" env:"REDIS_KEY_PREFIX" env-default:"stkpush"`
}

type KafkaService struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS"`
	Topic   string   `yaml:"topic" env:"KAFKA_TOPIC" env-default:"stkpush-events"`
}

func (k KafkaService) Enabled() bool {
	return len(k.Brokers) > 0
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"logfmt"`
	LogOutput string `yaml:"log_output" env:"LOG_OUTPUT" env-default:"stdout"`
}

type Reconciler struct {
	SweepInterval time.Duration `yaml:"sweep_interval" env:"RECONCILER_SWEEP_INTERVAL" env-default:"30s"`
	StaleAfter    time.Duration `yaml:"stale_after" env:"RECONCILER_STALE_AFTER" env-default:"2m"`
}

// Load reads the YAML file at path and applies environment overrides.
// An empty path reads the environment only.
func Load(path string) (*StkPushConfig, error) {
	var cfg StkPushConfig
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("read env: %w", err)
		}
	} else {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func MustLoad() *StkPushConfig {
	configPath := os.Getenv("STKPUSH_CONFIG_PATH")
	if configPath == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			configPath = defaultConfigPath
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *StkPushConfig) Validate() error {
	if _, ok := gatewayBaseURLs[c.Gateway.Environment]; !ok {
		return fmt.Errorf("gateway.environment must be %q or %q, got %q", EnvSandbox, EnvProduction, c.Gateway.Environment)
	}
	if c.Gateway.Environment == EnvProduction && c.Gateway.BusinessShortCode == "" {
		return fmt.Errorf("gateway.business_short_code is required in production")
	}
	if c.Gateway.AuthTimeout <= 0 || c.Gateway.PushTimeout <= 0 || c.Gateway.QueryTimeout <= 0 {
		return fmt.Errorf("gateway timeouts must be positive")
	}
	if c.Reconciler.SweepInterval < 0 || c.Reconciler.StaleAfter < 0 {
		return fmt.Errorf("reconciler durations cannot be negative")
	}
	return nil
}
