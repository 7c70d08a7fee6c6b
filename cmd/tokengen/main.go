// Command tokengen mints bearer tokens for interview API clients.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"interview-coach/internal/config"
	"interview-coach/internal/infra/api"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	subject := flag.String("sub", "", "client identifier stored as the token subject")
	ttl := flag.Duration("ttl", 30*24*time.Hour, "token lifetime")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load(*cfgPath, false)
	if err != nil {
		logger.Fatal().Err(err).Msg("config")
	}
	tok, err := api.NewAuthManager(cfg.HTTP.JWTSecret, *ttl).Mint(*subject)
	if err != nil {
		logger.Fatal().Err(err).Msg("mint")
	}
	logger.Info().Str("sub", *subject).Time("expires", time.Now().Add(*ttl)).Msg("token minted")
	fmt.Println(tok)
}
