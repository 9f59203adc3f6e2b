package main

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	BadgerFilepath string `envconfig:"BADGER_FILEPATH" default:"./data/badger"`
	BlugeFilepath  string `envconfig:"BLUGE_FILEPATH" default:"./data/bluge"`
	BlobRootDir    string `envconfig:"BLOB_ROOT_DIR" default:"./data/blobs"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	Colours        bool   `envconfig:"SEED_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
