// Command sessionctl exercises the session core against a live identity
// service: log in (completing a two-factor challenge interactively when
// the service asks for one), print the resulting session, and log out.
// Configuration comes from a YAML file and/or environment variables.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rs/zerolog"

	"github.com/propertyhub/authcore"
	"github.com/propertyhub/authcore/storage"
)

type config struct {
	BaseURL    string `yaml:"base_url" env:"AUTHCORE_BASE_URL" env-required:"true"`
	StateFile  string `yaml:"state_file" env:"AUTHCORE_STATE_FILE" env-default:".authcore-state.json"`
	Identifier string `yaml:"identifier" env:"AUTHCORE_IDENTIFIER"`
	Secret     string `yaml:"secret" env:"AUTHCORE_SECRET"`
	RememberMe bool   `yaml:"remember_me" env:"AUTHCORE_REMEMBER_ME"`
	LogLevel   string `yaml:"log_level" env:"AUTHCORE_LOG_LEVEL" env-default:"info"`
}

func main() {
	configPath := flag.String("config", "", "path to YAML config; env vars override")
	flag.Parse()

	var cfg config
	var err error
	if *configPath != "" {
		err = cleanenv.ReadConfig(*configPath, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	manager, err := authcore.New().
		WithConfig(authcore.Config{
			Gateway: authcore.GatewayConfig{BaseURL: cfg.BaseURL},
			Audit:   authcore.AuditConfig{Enabled: true, BufferSize: 64, DropIfFull: true},
		}).
		WithStorage(storage.NewFile(cfg.StateFile)).
		WithAuditSink(authcore.NewJSONWriterSink(os.Stderr)).
		WithLogger(logger).
		Build()
	if err != nil {
		logger.Fatal().Err(err).Msg("build session manager")
	}
	defer manager.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if snap := manager.Snapshot(); snap.IsAuthenticated {
		logger.Info().Str("user", snap.User.ID).Msg("restored persisted session; verifying")
		if ok, err := manager.VerifyToken(ctx); err != nil {
			logger.Warn().Err(err).Msg("persisted session rejected")
		} else if ok {
			printSession(manager)
			return
		}
	}

	if cfg.Identifier == "" || cfg.Secret == "" {
		logger.Fatal().Msg("no valid persisted session and no credentials configured")
	}

	result, err := manager.Login(ctx, authcore.Credentials{
		Identifier: cfg.Identifier,
		Secret:     cfg.Secret,
		RememberMe: cfg.RememberMe,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("login failed")
	}

	if result.TwoFactorRequired {
		fmt.Fprint(os.Stderr, "two-factor code: ")
		reader := bufio.NewReader(os.Stdin)
		code, _ := reader.ReadString('\n')
		result, err = manager.VerifyTwoFactor(ctx, strings.TrimSpace(code))
		if err != nil {
			logger.Fatal().Err(err).Msg("two-factor verification failed")
		}
	}

	logger.Info().Str("session_id", result.SessionID).Msg("authenticated")
	printSession(manager)
}

func printSession(manager *authcore.Manager) {
	snap := manager.Snapshot()
	fmt.Printf("user:        %s (%s)\n", snap.User.ID, snap.Role)
	fmt.Printf("device:      %s\n", snap.DeviceID)
	fmt.Printf("expires:     %s\n", snap.SessionExpiry.Format(time.RFC3339))
	fmt.Printf("permissions: %s\n", strings.Join(snap.Permissions, ", "))
	fmt.Printf("history:     %d login(s) recorded\n", len(snap.LoginHistory))
}
