package internal

import (
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

type Config struct {
	LexiconPath       string        `env:"LEXICON_PATH,required=true"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath     string        `env:"BLUGE_FILEPATH,required=true"`
	LogLevel          string        `env:"LOG_LEVEL,required=true"`
	ClassifierURL     string        `env:"CLASSIFIER_URL,required=true"`
	ClassifierTimeout time.Duration `env:"CLASSIFIER_TIMEOUT,required=true"`
	ClassifierPools   int           `env:"CLASSIFIER_POOLS,required=true"`
	ClassifierWorkers int           `env:"CLASSIFIER_WORKERS,required=true"`
	TesseractCmd      string        `env:"TESSERACT_CMD,default=tesseract"`
	TesseractLang     string        `env:"TESSERACT_LANG,default=ind"`
	MaxTextLength     int           `env:"MAX_TEXT_LENGTH,default=50000"`
	MaxImageBytes     int64         `env:"MAX_IMAGE_BYTES,default=5242880"`
	MetricInterval    time.Duration `env:"METRIC_INTERVAL,default=5s"`
}

// LoadConfig reads the environment, with an optional .env file for local runs.
// A missing .env is not an error; missing required variables are.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, err
	}
	return config, nil
}
