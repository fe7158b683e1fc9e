package config

import (
	"github.com/kelseyhightower/envconfig"
)

// Config holds everything the server reads from the environment.
// A .env file is loaded first in main, so local development works
// without exporting anything by hand.
type Config struct {
	Port          string `envconfig:"PORT" default:"8000"`
	MongoURI      string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDBName   string `envconfig:"MONGO_DB_NAME" default:"pfwcommerce"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	JWTSecret     string `envconfig:"JWT_SECRET" required:"true"`
	PostmarkToken string `envconfig:"POSTMARK_API_TOKEN"`
	EmailSender   string `envconfig:"EMAIL_SENDER"`
}

// Load populates Config from the process environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
