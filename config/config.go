package config

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server    Server
	Mongo     Mongo
	Redis     Redis
	Ledger    Ledger
	RateLimit RateLimit
}

type Server struct {
	Port string
}

type Mongo struct {
	URI      string
	Database string
}

type Redis struct {
	Addr string
}

type Ledger struct {
	DefaultTimeoutSeconds int
	FingerprintSalt       string
}

type RateLimit struct {
	PerMinute int
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DATABASE", "askhuman")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("DEFAULT_QUESTION_TTL_SECONDS", 3600)
	viper.SetDefault("FINGERPRINT_SALT", "askhuman-dev-salt")
	viper.SetDefault("RATE_LIMIT_PER_MINUTE", 60)

	var config Config

	config.Server.Port = viper.GetString("PORT")
	config.Mongo.URI = viper.GetString("MONGO_URI")
	config.Mongo.Database = viper.GetString("MONGO_DATABASE")
	config.Redis.Addr = viper.GetString("REDIS_ADDR")
	config.Ledger.DefaultTimeoutSeconds = viper.GetInt("DEFAULT_QUESTION_TTL_SECONDS")
	config.Ledger.FingerprintSalt = viper.GetString("FINGERPRINT_SALT")
	config.RateLimit.PerMinute = viper.GetInt("RATE_LIMIT_PER_MINUTE")

	log.Info().Str("port", config.Server.Port).Str("mongoDatabase", config.Mongo.Database).Msg("Config loaded")
	return &config, nil
}
