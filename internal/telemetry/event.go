package telemetry

import (
	"context"
	"encoding/hex"
	"os"
	"os/user"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"golang.org/x/crypto/blake2b"
)

// Phase is the point in a command's life an observation describes
type Phase string

const (
	PhaseAttempted Phase = "attempted"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
	// PhaseForwarded marks observations relayed from a controlling process
	PhaseForwarded Phase = "forwarded"
)

// Terminal reports whether the phase closes an invocation
func (p Phase) Terminal() bool {
	return p == PhaseSucceeded || p == PhaseFailed
}

// Event is one telemetry observation. All phases of one invocation share ID.
type Event struct {
	ID         string         `json:"id"`
	Session    string         `json:"session"`
	Command    string         `json:"command"`
	Phase      Phase          `json:"phase"`
	Time       time.Time      `json:"time"`
	Duration   time.Duration  `json:"duration_ns,omitempty"`
	Error      string         `json:"error,omitempty"`
	ExitCode   int            `json:"exit_code,omitempty"`
	CLIVersion string         `json:"cli_version"`
	AppID      string         `json:"app_id,omitempty"`
	Machine    string         `json:"machine,omitempty"`
	Env        Environment    `json:"env"`
	Data       map[string]any `json:"data,omitempty"`
}

// Environment describes the host a command ran on
type Environment struct {
	OS              string `json:"os"`
	Arch            string `json:"arch"`
	Platform        string `json:"platform,omitempty"`
	PlatformVersion string `json:"platform_version,omitempty"`
	CPUs            int    `json:"cpus,omitempty"`
}

// DetectEnvironment collects host facts, best effort
func DetectEnvironment(ctx context.Context) Environment {
	env := Environment{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}
	if info, err := host.InfoWithContext(ctx); err == nil {
		env.Platform = info.Platform
		env.PlatformVersion = info.PlatformVersion
	}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		env.CPUs = n
	}
	return env
}

// MachineID returns a stable, anonymous identifier for this user on this host
func MachineID() string {
	hostname, _ := os.Hostname()
	username := ""
	if u, err := user.Current(); err == nil {
		username = u.Username
	}
	sum := blake2b.Sum256([]byte(hostname + "\x00" + username))
	return hex.EncodeToString(sum[:16])
}
