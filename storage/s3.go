package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"paper-flow/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// NewS3Client erstellt einen S3-Client für den Archiv-Bucket. Ohne
// konfigurierten Endpoint wird direkt gegen AWS signiert.
func NewS3Client(cfg *config.Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.ArchiveS3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.ArchiveS3AccessKey, cfg.ArchiveS3SecretKey, "")),
	}
	if cfg.ArchiveS3Endpoint != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL:               cfg.ArchiveS3Endpoint,
					SigningRegion:     cfg.ArchiveS3Region,
					HostnameImmutable: true,
				}, nil
			},
		)
		opts = append(opts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(), opts...)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(awsCfg), nil
}

// UploadFile lädt eine Datei ins S3 hoch.
func UploadFile(ctx context.Context, client *s3.Client, bucket, key string, data []byte) error {
	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
		Body:   bytes.NewReader(data),
	})
	return err
}

// Archiver lädt die Artefakte eines Laufs in den Archiv-Bucket hoch.
type Archiver struct {
	Client *s3.Client
	Bucket string
	Logger *zap.Logger
}

// NewArchiver baut einen Archiver aus der Konfiguration.
func NewArchiver(cfg *config.Config, logger *zap.Logger) (*Archiver, error) {
	client, err := NewS3Client(cfg)
	if err != nil {
		return nil, err
	}
	return &Archiver{Client: client, Bucket: cfg.ArchiveS3Bucket, Logger: logger}, nil
}

// ArchiveRun lädt Snapshot und Report unter ingest/<startzeit>/ hoch und
// gibt den Objektschlüssel des Snapshots zurück. Leere Pfade werden
// übersprungen.
func (a *Archiver) ArchiveRun(ctx context.Context, startedAt time.Time, snapshotPath, reportPath string) (string, error) {
	prefix := "ingest/" + startedAt.Format("2006-01-02_15-04-05")

	var snapshotKey string
	for _, path := range []string{snapshotPath, reportPath} {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return snapshotKey, fmt.Errorf("archiv-upload: %s nicht lesbar: %w", path, err)
		}
		key := prefix + "/" + filepath.Base(path)
		if err := UploadFile(ctx, a.Client, a.Bucket, key, data); err != nil {
			return snapshotKey, fmt.Errorf("archiv-upload von %s fehlgeschlagen: %w", path, err)
		}
		if path == snapshotPath {
			snapshotKey = key
		}
		a.Logger.Info("Artefakt archiviert",
			zap.String("bucket", a.Bucket),
			zap.String("key", key))
	}
	return snapshotKey, nil
}
