package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/opencouncil/membership/internal/domain/entity"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Workflow WorkflowConfig `mapstructure:"workflow"`
	Identity IdentityConfig `mapstructure:"identity"`
	Mail     MailConfig     `mapstructure:"mail"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// MongoConfig holds MongoDB connection configuration
type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// WorkflowConfig holds the onboarding workflow parameters. The transition
// ladder itself lives in master data; this section carries the knobs that
// sit outside the table.
type WorkflowConfig struct {
	Type               string                           `mapstructure:"type"`
	InitialStatus      string                           `mapstructure:"initial_status"`
	CommitteeQuorum    int                              `mapstructure:"committee_quorum"`
	AllowedUserCount   int                              `mapstructure:"allowed_user_count"`
	MembershipValidity time.Duration                    `mapstructure:"membership_validity"`
	RejectionStages    map[string]entity.RejectionStage `mapstructure:"rejection_stages"`
	SeedTransitions    bool                             `mapstructure:"seed_transitions"`
}

// IdentityConfig holds identity provider API configuration
type IdentityConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// MailConfig holds mail gateway configuration. AdminEmail receives
// office-facing notifications such as the completion review alert.
type MailConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	Sender     string        `mapstructure:"sender"`
	AdminEmail string        `mapstructure:"admin_email"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Override with environment variables
	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	// Mongo defaults
	viper.SetDefault("mongo.uri", "mongodb://localhost:27017")
	viper.SetDefault("mongo.database", "membership")
	viper.SetDefault("mongo.connect_timeout", 10*time.Second)

	// Workflow defaults
	viper.SetDefault("workflow.type", entity.WorkflowTypeMembership)
	viper.SetDefault("workflow.initial_status", entity.StatusPendingCompletion)
	viper.SetDefault("workflow.committee_quorum", 2)
	viper.SetDefault("workflow.allowed_user_count", 5)
	viper.SetDefault("workflow.membership_validity", 365*24*time.Hour)
	viper.SetDefault("workflow.seed_transitions", true)
	viper.SetDefault("workflow.rejection_stages", map[string]map[string]interface{}{
		entity.StatusPendingCompletion: {
			"stage": entity.StageCompletion,
			"order": 0,
		},
		entity.StatusPendingCommitteeApproval: {
			"stage": entity.StageCommittee,
			"order": 1,
		},
		entity.StatusPendingCEOApproval: {
			"stage": entity.StageCEO,
			"order": 2,
		},
		entity.StatusApprovedPendingPayment: {
			"stage": entity.StagePayment,
			"order": 3,
		},
	})

	// Identity defaults
	viper.SetDefault("identity.timeout", 30*time.Second)

	// Mail defaults
	viper.SetDefault("mail.sender", "membership@opencouncil.example")
	viper.SetDefault("mail.admin_email", "membership-office@opencouncil.example")
	viper.SetDefault("mail.timeout", 30*time.Second)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	// Sensitive credentials from environment
	viper.BindEnv("mongo.uri", "MONGO_URI")
	viper.BindEnv("identity.base_url", "IDENTITY_BASE_URL")
	viper.BindEnv("identity.api_key", "IDENTITY_API_KEY")
	viper.BindEnv("mail.base_url", "MAIL_BASE_URL")
	viper.BindEnv("mail.api_key", "MAIL_API_KEY")
	viper.BindEnv("mail.sender", "MAIL_SENDER")
	viper.BindEnv("mail.admin_email", "MAIL_ADMIN_EMAIL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate Mongo settings
	if c.Mongo.URI == "" {
		return fmt.Errorf("mongo.uri is required")
	}
	if c.Mongo.Database == "" {
		return fmt.Errorf("mongo.database is required")
	}

	// Validate workflow settings
	if c.Workflow.CommitteeQuorum < 1 {
		return fmt.Errorf("workflow.committee_quorum must be at least 1")
	}
	if c.Workflow.InitialStatus == "" {
		return fmt.Errorf("workflow.initial_status is required")
	}
	if c.Workflow.MembershipValidity <= 0 {
		return fmt.Errorf("workflow.membership_validity must be positive")
	}
	if len(c.Workflow.RejectionStages) == 0 {
		return fmt.Errorf("workflow.rejection_stages is required")
	}

	// Validate external endpoints
	if c.Identity.BaseURL == "" {
		return fmt.Errorf("identity.base_url is required")
	}
	if c.Mail.BaseURL == "" {
		return fmt.Errorf("mail.base_url is required")
	}
	if c.Mail.AdminEmail == "" {
		return fmt.Errorf("mail.admin_email is required")
	}

	return nil
}
