package config

import (
	"strings"
	"time"

	"github.com/SeakMengs/AutoSign/internal/env"
)

type StoreDriver string

const (
	StoreDriverMemory   StoreDriver = "memory"
	StoreDriverPostgres StoreDriver = "postgres"
	StoreDriverDynamoDB StoreDriver = "dynamodb"
)

type Config struct {
	Port string
	ENV  string
	// Base URL the signing links are built from, e.g. https://sign.example.com
	PublicURL   string
	Store       StoreDriver
	DB          DatabaseConfig
	DynamoDB    DynamoDBConfig
	Minio       MinioConfig
	Nats        NatsConfig
	RateLimiter RateLimiterConfig
	Autosign    AutosignConfig
}

type RateLimiterConfig struct {
	RequestsPerTimeFrame int
	TimeFrame            time.Duration
	Enabled              bool
}

type DatabaseConfig struct {
	DB_HOST      string
	DB_PORT      string
	DB_DATABASE  string
	DB_USERNAME  string
	DB_PASSWORD  string
	MaxOpenConns int
	MaxIdleConns int
	MaxIdleTime  string
}

type DynamoDBConfig struct {
	TABLE    string
	REGION   string
	ENDPOINT string
}

type MinioConfig struct {
	ENDPOINT   string
	ACCESS_KEY string
	SECRET_KEY string
	BUCKET     string
	USE_SSL    bool
}

// Enabled reports whether exports to object storage are configured.
func (m MinioConfig) Enabled() bool {
	return m.ENDPOINT != ""
}

type NatsConfig struct {
	URL     string
	SUBJECT string
}

type AutosignConfig struct {
	FontMetadataPath string
	FontName         string
	TmpDir           string
	// Max size of an uploaded PDF or attachment in bytes
	MaxUploadSize       int64
	AttestationEnabled  bool
	AttestationReason   string
	AttestationOrg      string
	AttestationLocality string
	AttestationCountry  string
	SigningQRCodeSize   int
	ExportPresignExpiry time.Duration
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.ENV, "production")
}

func GetConfig() Config {
	rateLimiteTimeFrame, err := time.ParseDuration(env.GetString("RATE_LIMIT_TIME_FRAME", "1m"))
	if err != nil {
		rateLimiteTimeFrame = 60 * time.Second
	}

	presignExpiry, err := time.ParseDuration(env.GetString("EXPORT_PRESIGN_EXPIRY", "24h"))
	if err != nil {
		presignExpiry = 24 * time.Hour
	}

	return Config{
		Port:      env.GetString("PORT", "8080"),
		ENV:       env.GetString("ENV", "development"),
		PublicURL: strings.TrimRight(env.GetString("PUBLIC_URL", "http://localhost:3000"), "/"),
		Store:     StoreDriver(strings.ToLower(env.GetString("STORE_DRIVER", string(StoreDriverPostgres)))),
		DB: DatabaseConfig{
			DB_HOST:      env.GetString("DB_HOST", "127.0.0.1"),
			DB_PORT:      env.GetString("DB_PORT", "5432"),
			DB_USERNAME:  env.GetString("DB_USERNAME", "root"),
			DB_PASSWORD:  env.GetString("DB_PASSWORD", ""),
			DB_DATABASE:  env.GetString("DB_DATABASE", "autosign"),
			MaxOpenConns: env.GetInt("DB_MAX_OPEN_CONNS", 30),
			MaxIdleConns: env.GetInt("DB_MAX_IDLE_CONNS", 30),
			MaxIdleTime:  env.GetString("DB_MAX_IDLE_TIME", "15m"),
		},
		DynamoDB: DynamoDBConfig{
			TABLE:    env.GetString("DYNAMODB_TABLE", "autosign-templates"),
			REGION:   env.GetString("DYNAMODB_REGION", "us-east-1"),
			ENDPOINT: env.GetString("DYNAMODB_ENDPOINT", ""),
		},
		Minio: MinioConfig{
			ENDPOINT:   env.GetString("MINIO_ENDPOINT", ""),
			ACCESS_KEY: env.GetString("MINIO_ACCESS_KEY", ""),
			SECRET_KEY: env.GetString("MINIO_SECRET_KEY", ""),
			BUCKET:     env.GetString("MINIO_BUCKET", "autosign"),
			USE_SSL:    env.GetBool("MINIO_USE_SSL", false),
		},
		Nats: NatsConfig{
			URL:     env.GetString("NATS_URL", ""),
			SUBJECT: env.GetString("NATS_SUBJECT", "autosign.activity"),
		},
		// By default if not specified, we allow 5000 requests per minute on all routes
		RateLimiter: RateLimiterConfig{
			RequestsPerTimeFrame: env.GetInt("RATE_LIMIT_REQUESTS_PER_TIME_FRAME", 5000),
			TimeFrame:            rateLimiteTimeFrame,
			Enabled:              env.GetBool("RATE_LIMIT_ENABLED", true),
		},
		Autosign: AutosignConfig{
			FontMetadataPath:    env.GetString("FONT_METADATA_PATH", "font_metadata.json"),
			FontName:            env.GetString("SIGNING_FONT_NAME", ""),
			TmpDir:              env.GetString("AUTOSIGN_TMP_DIR", ""),
			MaxUploadSize:       int64(env.GetInt("MAX_UPLOAD_SIZE_MB", 25)) << 20,
			AttestationEnabled:  env.GetBool("ATTESTATION_ENABLED", true),
			AttestationReason:   env.GetString("ATTESTATION_REASON", "I agree to the terms of this document"),
			AttestationOrg:      env.GetString("ATTESTATION_ORGANIZATION", ""),
			AttestationLocality: env.GetString("ATTESTATION_LOCALITY", ""),
			AttestationCountry:  env.GetString("ATTESTATION_COUNTRY", ""),
			SigningQRCodeSize:   env.GetInt("SIGNING_QR_CODE_SIZE", 256),
			ExportPresignExpiry: presignExpiry,
		},
	}
}
