package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database *dbConfig
	Service  *svcConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"voxnotes"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address         string        `envconfig:"VOXNOTES_ADDRESS" default:":3443"`
	MetricsAddress  string        `envconfig:"VOXNOTES_METRICS_ADDRESS" default:":8080"`
	BaseUrl         string        `envconfig:"VOXNOTES_BASE_URL" default:"https://localhost:3443"`
	LogLevel        string        `envconfig:"VOXNOTES_LOG_LEVEL" default:"info"`
	ProcessInterval time.Duration `envconfig:"VOXNOTES_PROCESS_INTERVAL" default:"1m"`
	MigrationFolder string        `envconfig:"VOXNOTES_MIGRATIONS_FOLDER" default:""`
	Auth            Auth
	Webhook         webhookConfig
	Transcriber     transcriberConfig
	Generator       generatorConfig
	Storage         storageConfig
}

type Auth struct {
	AuthenticationType string `envconfig:"VOXNOTES_AUTH" default:""`
	LocalPrivateKey    string `envconfig:"VOXNOTES_PRIVATE_KEY" default:""`
}

type webhookConfig struct {
	// BaseUrl is the externally reachable address handed to the
	// transcription provider as callback target.
	BaseUrl string `envconfig:"VOXNOTES_WEBHOOK_BASE_URL" default:"http://localhost:3443"`
	Secret  string `envconfig:"VOXNOTES_WEBHOOK_SECRET" default:""`
}

type transcriberConfig struct {
	APIKey string `envconfig:"VOXNOTES_ASSEMBLYAI_API_KEY" default:""`
}

type generatorConfig struct {
	APIKey string `envconfig:"VOXNOTES_GEMINI_API_KEY" default:""`
	Model  string `envconfig:"VOXNOTES_GEMINI_MODEL" default:"gemini-flash-latest"`
}

type storageConfig struct {
	Endpoint  string `envconfig:"VOXNOTES_S3_ENDPOINT" default:"s3.filebase.com"`
	Bucket    string `envconfig:"VOXNOTES_S3_BUCKET" default:"voxnotes"`
	AccessKey string `envconfig:"VOXNOTES_S3_ACCESS_KEY" default:""`
	SecretKey string `envconfig:"VOXNOTES_S3_SECRET_KEY" default:""`
	UseSSL    bool   `envconfig:"VOXNOTES_S3_USE_SSL" default:"true"`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}

// NewDefault returns a config backed by an in-memory sqlite database.
// Used by the test suites.
func NewDefault() *Config {
	return &Config{
		Database: &dbConfig{
			Type: "sqlite",
			Name: "file::memory:?cache=shared",
		},
		Service: &svcConfig{
			Address:         "localhost:0",
			LogLevel:        "debug",
			ProcessInterval: time.Minute,
		},
	}
}
