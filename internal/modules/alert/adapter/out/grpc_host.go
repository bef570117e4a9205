package out

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	alertrpc "meetingd/internal/modules/alert/adapter/out/rpc"
	"meetingd/internal/modules/alert/domain"
	alertout "meetingd/internal/modules/alert/port/out"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
)

const (
	defaultStartTimeout = 3 * time.Second
	defaultCallTimeout  = 5 * time.Second
)

type GRPCHost struct{}

func NewGRPCHost() alertout.Host {
	return &GRPCHost{}
}

func (h *GRPCHost) CheckLifecycle(ctx context.Context, manifest domain.SinkManifest) error {
	_, err := h.GetMetadata(ctx, manifest)
	return err
}

func (h *GRPCHost) GetMetadata(ctx context.Context, manifest domain.SinkManifest) (domain.SinkMetadata, error) {
	client, closeFn, err := h.connect(manifest)
	if err != nil {
		return domain.SinkMetadata{}, err
	}
	defer closeFn()

	callCtx, cancel := h.callContext(ctx, defaultCallTimeout)
	defer cancel()

	meta, err := client.GetMetadata(callCtx)
	if err != nil {
		return domain.SinkMetadata{}, fmt.Errorf("get metadata: %w", err)
	}
	return domain.SinkMetadata{Name: meta.Name, Version: meta.Version}, nil
}

func (h *GRPCHost) Deliver(ctx context.Context, manifest domain.SinkManifest, alert domain.Alert) error {
	client, closeFn, err := h.connect(manifest)
	if err != nil {
		return err
	}
	defer closeFn()

	callCtx, cancel := h.callContext(ctx, defaultCallTimeout)
	defer cancel()
	response, err := client.Deliver(callCtx, &alertrpc.DeliverRequest{
		AlertID:        alert.ID,
		OrganizationID: alert.OrganizationID,
		TeamID:         alert.TeamID,
		SessionID:      alert.SessionID,
		UserID:         alert.UserID,
		ErrorType:      string(alert.Type),
		Severity:       string(alert.Severity),
		Message:        alert.Message,
		Phase:          alert.Phase,
		Context:        alert.Context,
		OccurredAt:     alert.OccurredAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", domain.ErrSinkTimeout, manifest.Name)
		}
		return fmt.Errorf("deliver alert: %w", err)
	}
	if !response.Accepted {
		return fmt.Errorf("sink %s rejected alert: %s", manifest.Name, response.Detail)
	}
	return nil
}

func (h *GRPCHost) connect(manifest domain.SinkManifest) (alertrpc.AlertSinkClient, func(), error) {
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  alertrpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          alertrpc.PluginMap(nil),
		Cmd:              exec.Command(manifest.Binary),
		Managed:          true,
		StartTimeout:     defaultStartTimeout,
		Logger:           hclog.New(&hclog.LoggerOptions{Output: io.Discard, Level: hclog.NoLevel}),
	})
	closeFn := func() { client.Kill() }

	rpcClient, err := client.Client()
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("start sink client: %w", err)
	}
	raw, err := rpcClient.Dispense(alertrpc.PluginMapKey)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("dispense sink: %w", err)
	}
	typed, ok := raw.(alertrpc.AlertSinkClient)
	if !ok {
		closeFn()
		return nil, nil, fmt.Errorf("sink rpc client type mismatch")
	}
	return typed, closeFn, nil
}

func (h *GRPCHost) callContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
