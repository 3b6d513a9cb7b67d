package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	Supabase    SupabaseConfig    `yaml:"supabase"`
	NowPayments NowPaymentsConfig `yaml:"nowpayments"`
	SMTP        SMTPConfig        `yaml:"smtp"`
	Site        SiteConfig        `yaml:"site"`
	DFS         DFSConfig         `yaml:"dfs"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type KafkaConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	PaymentStatusTopicName string `yaml:"payment_status_topic_name"`
}

type SupabaseConfig struct {
	URL     string `yaml:"url"`
	AnonKey string `yaml:"anon_key"`
}

type NowPaymentsConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	IPNSecret string `yaml:"ipn_secret"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type SiteConfig struct {
	// Public site origin, used in tracking links and as the fallback when a
	// request carries no forwarded-host headers.
	BaseURL string `yaml:"base_url"`
}

type DFSConfig struct {
	HTTPAddr           string `yaml:"http_addr"`
	AdminEmail         string `yaml:"admin_email"`
	KafkaConsumerGroup string `yaml:"kafka_consumer_group"`

	TrackingCacheTTLSeconds  int `yaml:"tracking_cache_ttl_seconds"`
	LookupRateLimitPerMinute int `yaml:"lookup_rate_limit_per_minute"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return &config, nil
}
