package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`
	// Gehostete Postgres-Instanzen verlangen TLS, lokal kann auf
	// "disable" umgestellt werden.
	DBSSLMode string `envconfig:"DB_SSLMODE" default:"require"`

	HTTPPort string `envconfig:"PORT" default:"8080"`
	APIKey   string `envconfig:"API_KEY"`

	CronSchedule string `envconfig:"CRON_SCHEDULE" default:"0 6 * * *"`

	OpenAlexBaseURL string `envconfig:"OPENALEX_BASE_URL" default:"https://api.openalex.org"`
	// Mit hinterlegter Adresse landen Anfragen im "polite pool" von OpenAlex.
	OpenAlexMailto string `envconfig:"OPENALEX_MAILTO"`

	// Archivierung ist optional und nur aktiv, wenn ein Bucket gesetzt ist.
	ArchiveS3Bucket    string `envconfig:"ARCHIVE_S3_BUCKET"`
	ArchiveS3Endpoint  string `envconfig:"ARCHIVE_S3_ENDPOINT"`
	ArchiveS3AccessKey string `envconfig:"ARCHIVE_S3_ACCESS_KEY"`
	ArchiveS3SecretKey string `envconfig:"ARCHIVE_S3_SECRET_KEY"`
	ArchiveS3Region    string `envconfig:"ARCHIVE_S3_REGION" default:"eu-central-1"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

// ArchiveEnabled meldet, ob Snapshots nach S3 hochgeladen werden sollen.
func (c *Config) ArchiveEnabled() bool {
	return c.ArchiveS3Bucket != ""
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
