// Package build produces signed release artifacts for the Android and iOS
// platforms of an app project.
package build

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/psantana5/capctl/internal/clierr"
	"github.com/psantana5/capctl/internal/config"
	"github.com/psantana5/capctl/pkg/logging"
)

// Platforms accepted by Build
const (
	PlatformAndroid = "android"
	PlatformIOS     = "ios"
)

// Options are the command-line options of `capctl build`. Empty fields fall
// back to the project configuration.
type Options struct {
	Scheme             string
	Flavor             string
	KeystorePath       string
	KeystorePass       string
	KeystoreAlias      string
	KeystoreAliasPass  string
	AndroidReleaseType string
	SigningType        string
	Configuration      string
}

// Builder runs release builds for one project
type Builder struct {
	cfg    *config.Config
	runner Runner
	logger *logging.Logger
	goos   string
}

// New creates a builder. A nil runner runs real tools.
func New(cfg *config.Config, runner Runner, logger *logging.Logger) *Builder {
	if logger == nil {
		logger = logging.Discard()
	}
	if runner == nil {
		runner = &ExecRunner{Logger: logger}
	}
	return &Builder{
		cfg:    cfg,
		runner: runner,
		logger: logger,
		goos:   runtime.GOOS,
	}
}

// Build produces the release artifact for platform
func (b *Builder) Build(ctx context.Context, platform string, opts Options) error {
	if !b.cfg.App.Found() {
		return clierr.Fatalf(clierr.ExitConfig, "%s.json not found in %s; run capctl from your app's root directory",
			config.ProjectConfigName, b.cfg.App.RootDir)
	}

	switch strings.ToLower(platform) {
	case PlatformAndroid:
		return b.buildAndroid(ctx, b.resolveAndroid(opts))
	case PlatformIOS:
		return b.buildIOS(ctx, opts)
	default:
		return clierr.Fatal(fmt.Sprintf("Platform %q is not supported; choose %s or %s", platform, PlatformAndroid, PlatformIOS))
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func requireDir(platform, dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return clierr.Fatal(fmt.Sprintf("the %s platform has not been added yet: %s does not exist", platform, dir))
	}
	return nil
}
