package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	alertrpc "meetingd/internal/modules/alert/adapter/out/rpc"

	"github.com/hashicorp/go-plugin"
)

const outputEnv = "MEETINGD_ALERT_FILE"

// server appends each delivered alert as one JSON line.
type server struct {
	mu sync.Mutex
}

func (s *server) GetMetadata(_ context.Context, _ *alertrpc.Empty) (*alertrpc.Metadata, error) {
	return &alertrpc.Metadata{Name: "alert-file", Version: "1.0.0"}, nil
}

func (s *server) Deliver(_ context.Context, in *alertrpc.DeliverRequest) (*alertrpc.DeliverResponse, error) {
	path := os.Getenv(outputEnv)
	if path == "" {
		return &alertrpc.DeliverResponse{Accepted: false, Detail: outputEnv + " is not set"}, nil
	}
	line, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode alert: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open alert file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return nil, fmt.Errorf("write alert: %w", err)
	}
	return &alertrpc.DeliverResponse{Accepted: true}, nil
}

func main() {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: alertrpc.HandshakeConfig,
		Plugins:         alertrpc.PluginMap(&server{}),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
