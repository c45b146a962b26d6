package models

// MConfig Structure
type MConfig struct {
	Name     string          `yaml:"name"`
	Host     string          `yaml:"host"`
	Port     int             `yaml:"port"`
	LogLevel string          `yaml:"log_level"`
	Storage  MStorageConfig  `yaml:"storage"`
	Network  MNetworkConfig  `yaml:"network"`
	Upstream MUpstreamConfig `yaml:"upstream"`
	Poller   MPollerConfig   `yaml:"poller"`
	NATS     MNATSConfig     `yaml:"nats"`
	Digest   MDigestConfig   `yaml:"digest"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}

type MNetworkConfig struct {
	RequestTimeout     int    `yaml:"timeout"`
	MaxRetries         int    `yaml:"retries"`
	ConcurrentRequests int    `yaml:"concurrent_requests"`
	UserAgent          string `yaml:"user_agent"`
}

// MUpstreamConfig configures the streaming quote provider connection.
// The API key is read from the environment variable named by APIKeyEnv,
// never from the YAML file itself.
type MUpstreamConfig struct {
	Endpoint         string `yaml:"endpoint"`
	APIKeyEnv        string `yaml:"api_key_env"`
	ReconnectSeconds int    `yaml:"reconnect_seconds"`
}

type MPollerConfig struct {
	IntervalSeconds int  `yaml:"interval_seconds"`
	MarketHoursGate bool `yaml:"market_hours_gate"`
}

type MNATSConfig struct {
	Enabled       bool     `yaml:"enabled"`
	Servers       []string `yaml:"servers"`
	ClientID      string   `yaml:"client_id"`
	SubjectPrefix string   `yaml:"subject_prefix"`
}

type MDigestConfig struct {
	Enabled  bool   `yaml:"enabled"`
	SendHour int    `yaml:"send_hour"`
	SMTPHost string `yaml:"smtp_host"`
	SMTPPort int    `yaml:"smtp_port"`
	From     string `yaml:"from"`
	UserEnv  string `yaml:"user_env"`
	PassEnv  string `yaml:"pass_env"`
}
