package internal

import (
	"fmt"
	"time"
)

type Config struct {
	BadgerFilepath  string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath   string        `env:"BLUGE_FILEPATH,required=true"`
	BlobRootDir     string        `env:"BLOB_ROOT_DIR,required=true"`
	LogLevel        string        `env:"LOG_LEVEL,required=true"`
	CharReplacement string        `env:"CHARACTER_REPLACEMENT,default=*"`
	CensoredWords   []string      `env:"CENSORED_WORDS"`
	MetricInterval  time.Duration `env:"METRIC_INTERVAL,default=30s"`
	DebugPort       int           `env:"DEBUG_PORT,default=8090"`

	// Optional S3-compatible blob backend. When the endpoint is empty the
	// engine stores attachments on local disk under BLOB_ROOT_DIR.
	MinioEndpoint  string `env:"MINIO_ENDPOINT"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY"`
	MinioBucket    string `env:"MINIO_BUCKET,default=campus-sync"`
	MinioUseSSL    bool   `env:"MINIO_USE_SSL,default=false"`
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
