// Package ipc receives messages from a controlling parent process over an
// inherited file descriptor.
package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync/atomic"

	"github.com/psantana5/capctl/pkg/logging"
	"github.com/psantana5/capctl/pkg/ratelimit"
)

// maxRelayedCommands bounds the distinct commands given their own rate bucket
const maxRelayedCommands = 64

// EnvFD names the environment variable holding the channel's file descriptor
const EnvFD = "CAPCTL_IPC_FD"

// MessageTypeTelemetry carries an observation to relay
const MessageTypeTelemetry = "telemetry"

// Message is one payload from the controlling process
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// TelemetryData is the payload of a telemetry message
type TelemetryData struct {
	Command string         `json:"command"`
	Data    map[string]any `json:"data,omitempty"`
}

// Forwarder relays observations, implemented by *telemetry.Recorder
type Forwarder interface {
	Forward(ctx context.Context, command string, data map[string]any)
}

// Receiver is the process's single message callback
type Receiver struct {
	logger    *logging.Logger
	forwarder atomic.Pointer[Forwarder]
	limiter   *ratelimit.Limiter
}

// NewReceiver creates a receiver. Relayed telemetry is limited to rps messages
// per second per command, with the given burst.
func NewReceiver(logger *logging.Logger, rps float64, burst int) *Receiver {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Receiver{
		logger:  logger.WithField("component", "ipc"),
		limiter: ratelimit.NewLimiter(rps, burst, maxRelayedCommands),
	}
}

// Attach sets where telemetry messages are relayed. Messages received before
// Attach are dropped.
func (r *Receiver) Attach(f Forwarder) {
	r.forwarder.Store(&f)
}

// Receive handles one message. It never panics.
func (r *Receiver) Receive(ctx context.Context, msg Message) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Warn(fmt.Sprintf("ipc message handler panicked: %v", p))
		}
	}()

	switch msg.Type {
	case MessageTypeTelemetry:
		var data TelemetryData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			r.logger.Warn(fmt.Sprintf("invalid telemetry message: %v", err))
			return
		}
		fp := r.forwarder.Load()
		if fp == nil {
			r.logger.Debug("telemetry message dropped: telemetry not ready")
			return
		}
		if !r.limiter.Allow(data.Command) {
			r.logger.Debug("telemetry message dropped: rate limited")
			return
		}
		(*fp).Forward(ctx, data.Command, data.Data)
	default:
		r.logger.Debug(fmt.Sprintf("ignoring ipc message of type %q", msg.Type))
	}
}

// Listen decodes newline-delimited JSON messages from rd and hands each to
// Receive in arrival order until rd is exhausted or ctx is done.
func (r *Receiver) Listen(ctx context.Context, rd io.Reader) error {
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var msg Message
		if err := json.Unmarshal(line, &msg); err != nil {
			r.logger.Warn(fmt.Sprintf("invalid ipc message: %v", err))
			continue
		}
		r.Receive(ctx, msg)
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("ipc channel: %w", err)
	}
	return nil
}

// OpenFromEnv opens the inherited channel named by EnvFD. It reports false
// when the process was not started with one.
func OpenFromEnv(lookup func(string) (string, bool)) (*os.File, bool, error) {
	raw, ok := lookup(EnvFD)
	if !ok || raw == "" {
		return nil, false, nil
	}
	fd, err := strconv.Atoi(raw)
	if err != nil || fd < 0 {
		return nil, false, fmt.Errorf("invalid %s %q", EnvFD, raw)
	}
	f := os.NewFile(uintptr(fd), "ipc")
	if f == nil {
		return nil, false, fmt.Errorf("invalid %s %q", EnvFD, raw)
	}
	return f, true, nil
}
