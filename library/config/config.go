package config

import (
	"fmt"
	"log"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/kelseyhightower/envconfig"

	"github.com/Astemirdum/library-records/pkg/kafka"
	"github.com/Astemirdum/library-records/pkg/logger"
	"github.com/Astemirdum/library-records/pkg/postgres"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type HTTPServer struct {
	Host         string        `envconfig:"HTTP_HOST" default:"0.0.0.0"`
	Port         string        `envconfig:"HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `envconfig:"HTTP_READ" default:"10s"`
	WriteTimeout time.Duration `envconfig:"HTTP_WRITE"`
}

type Config struct {
	Server   HTTPServer
	Database postgres.DB
	Storage  string `envconfig:"STORAGE" default:"postgres"`
	Kafka    kafka.Config
	Log      logger.Log
}

var (
	once sync.Once
	cfg  *Config
)

// NewConfig reads the environment once. Options only fill what the
// environment leaves unset.
func NewConfig(ops ...Option) *Config {
	once.Do(func() {
		var config Config
		for _, op := range ops {
			op(&config)
		}
		if err := envconfig.Process("", &config); err != nil {
			log.Fatal("NewConfig ", err)
		}
		if err := config.validate(); err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = &config
		printConfig(cfg)
	})

	return cfg
}

func (c *Config) validate() error {
	switch c.Storage {
	case StoragePostgres, StorageMemory:
		return nil
	default:
		return fmt.Errorf("unknown STORAGE %q", c.Storage)
	}
}

func printConfig(cfg *Config) {
	redacted := *cfg
	redacted.Database.Password = "***"
	jscfg, _ := jsoniter.MarshalIndent(redacted, "", "	") //nolint:errcheck
	fmt.Println(string(jscfg))
}
