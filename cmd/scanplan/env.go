package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/scanplan"
	"github.com/arloliu/scanplan/internal/logging"
	"github.com/arloliu/scanplan/types"
)

var errNATSRequired = errors.New("--nats-url is required")

// env holds what every subcommand needs after flag parsing.
type env struct {
	cfg    *scanplan.Config
	logger types.Logger
}

func newEnv(g *globalFlags, logOut io.Writer) (*env, error) {
	logger, err := logging.New(g.logFormat, g.debug, logOut)
	if err != nil {
		return nil, err
	}

	cfg := scanplan.DefaultConfig()
	if g.configPath != "" {
		loaded, err := scanplan.LoadConfig(g.configPath)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	return &env{cfg: &cfg, logger: logger}, nil
}

// connect opens a NATS connection and a JetStream context.
func connect(url string, logger types.Logger) (*nats.Conn, jetstream.JetStream, error) {
	if url == "" {
		return nil, nil, errNATSRequired
	}

	nc, err := nats.Connect(url,
		nats.Name("scanplan"),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}
	logger.Debug("connected to NATS", "url", nc.ConnectedUrl())

	return nc, js, nil
}
