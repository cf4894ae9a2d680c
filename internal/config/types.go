package config

// Config is the root configuration for tripdesk.
type Config struct {
	OpenAI     OpenAIConfig     `yaml:"openai,omitempty"`
	Gateway    GatewayConfig    `yaml:"gateway,omitempty"`
	Database   DatabaseConfig   `yaml:"database,omitempty"`
	Checkpoint CheckpointConfig `yaml:"checkpoint,omitempty"`
	Logging    LoggingConfig    `yaml:"logging,omitempty"`
}

// OpenAIConfig configures the intent producer.
type OpenAIConfig struct {
	APIKey string `yaml:"apiKey,omitempty"` // supports ${ENV_VAR} references
	Model  string `yaml:"model,omitempty"`
}

// GatewayConfig controls the gateway HTTP/WebSocket server.
type GatewayConfig struct {
	Port int         `yaml:"port,omitempty"`
	Bind string      `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	Host string      `yaml:"host,omitempty"` // used when bind: custom
	Auth GatewayAuth `yaml:"auth,omitempty"`
}

// GatewayAuth configures gateway authentication.
type GatewayAuth struct {
	Mode  string `yaml:"mode,omitempty"` // "token" | "none"
	Token string `yaml:"token,omitempty"`
}

// DatabaseConfig locates the SQLite booking database.
type DatabaseConfig struct {
	Path string `yaml:"path,omitempty"` // empty means <data dir>/tripdesk.db
}

// CheckpointConfig selects where conversation state is persisted.
type CheckpointConfig struct {
	Store string      `yaml:"store,omitempty"` // "memory" | "sqlite" | "redis"
	Redis RedisConfig `yaml:"redis,omitempty"`
}

// RedisConfig configures the Redis checkpoint backend.
type RedisConfig struct {
	Addr       string `yaml:"addr,omitempty"`
	Password   string `yaml:"password,omitempty"` // supports ${ENV_VAR} references
	DB         int    `yaml:"db,omitempty"`
	TTLMinutes int    `yaml:"ttlMinutes,omitempty"` // 0 means no expiry
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
}
