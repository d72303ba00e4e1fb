package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/psantana5/capctl/internal/clierr"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment override, e.g. CAPCTL_TELEMETRY_ENABLED
const EnvPrefix = "CAPCTL"

// LoadOptions controls where Load looks for configuration
type LoadOptions struct {
	// RootDir is the project directory; defaults to the working directory.
	RootDir string
	// UserConfigPath is an explicit user config file; it must exist when set.
	UserConfigPath string
	// HomeDir overrides the user's home directory.
	HomeDir string
}

// DefaultUserConfigPath returns $HOME/.capctl/config.yaml
func DefaultUserConfigPath(home string) string {
	return filepath.Join(home, ".capctl", "config.yaml")
}

// Load resolves the configuration. A missing project config yields defaults so
// that help, version and preference commands work outside a project; an
// unreadable or invalid file is a fatal error with exit code clierr.ExitConfig.
func Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rootDir := opts.RootDir
	if rootDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, clierr.Wrap(err, clierr.ExitConfig, fmt.Sprintf("cannot determine working directory: %v", err))
		}
		rootDir = wd
	}
	rootDir, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, clierr.Wrap(err, clierr.ExitConfig, fmt.Sprintf("invalid project directory %s: %v", rootDir, err))
	}

	user, userPath, err := loadUser(opts)
	if err != nil {
		return nil, err
	}
	project, projectPath, err := loadProject(rootDir)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		CLI: CLI{
			Name:           "capctl",
			Version:        Version,
			UserConfigPath: userPath,
		},
		App: App{
			RootDir:    rootDir,
			ConfigPath: projectPath,
			AppID:      project.GetString("appId"),
			AppName:    project.GetString("appName"),
			WebDir:     project.GetString("webDir"),
		},
		Android: Android{
			Path:                  resolvePath(rootDir, project.GetString("android.path")),
			Flavor:                project.GetString("android.flavor"),
			ReleaseType:           project.GetString("android.releaseType"),
			SigningType:           project.GetString("android.signingType"),
			KeystorePath:          resolvePath(rootDir, project.GetString("android.keystorePath")),
			KeystorePassword:      project.GetString("android.keystorePassword"),
			KeystoreAlias:         project.GetString("android.keystoreAlias"),
			KeystoreAliasPassword: project.GetString("android.keystoreAliasPassword"),
		},
		IOS: IOS{
			Path:          resolvePath(rootDir, project.GetString("ios.path")),
			Scheme:        project.GetString("ios.scheme"),
			Configuration: project.GetString("ios.configuration"),
		},
		Telemetry: Telemetry{
			Enabled:      user.GetBool("telemetry.enabled"),
			Endpoint:     user.GetString("telemetry.endpoint"),
			OTLPEndpoint: user.GetString("telemetry.otlp_endpoint"),
			OTLPInsecure: user.GetBool("telemetry.otlp_insecure"),
			Textfile:     user.GetString("telemetry.textfile"),
			Pushgateway:  user.GetString("telemetry.pushgateway"),
		},
		History: History{
			DSN: user.GetString("history.dsn"),
		},
		Log: Log{
			Level:  user.GetString("log.level"),
			Format: user.GetString("log.format"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	where := c.App.ConfigPath
	if where == "" {
		where = "defaults"
	}
	if !ValidReleaseType(c.Android.ReleaseType) {
		return clierr.Fatalf(clierr.ExitConfig, "invalid android.releaseType %q in %s: must be one of %s",
			c.Android.ReleaseType, where, strings.Join(ReleaseTypes, ", "))
	}
	if !ValidSigningType(c.Android.SigningType) {
		return clierr.Fatalf(clierr.ExitConfig, "invalid android.signingType %q in %s: must be one of %s",
			c.Android.SigningType, where, strings.Join(SigningTypes, ", "))
	}
	return nil
}

func loadUser(opts LoadOptions) (*viper.Viper, string, error) {
	v := viper.New()
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Bind specific environment variables
	v.BindEnv("telemetry.enabled", EnvPrefix+"_TELEMETRY", EnvPrefix+"_TELEMETRY_ENABLED")
	v.BindEnv("history.dsn", EnvPrefix+"_HISTORY_DSN")

	path := opts.UserConfigPath
	explicit := path != ""
	if !explicit {
		home := opts.HomeDir
		if home == "" {
			h, err := os.UserHomeDir()
			if err != nil {
				// No home directory means no user config; env and defaults still apply.
				return v, "", nil
			}
			home = h
		}
		path = DefaultUserConfigPath(home)
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return v, path, nil
		}
		return nil, "", clierr.Wrap(err, clierr.ExitConfig, fmt.Sprintf("cannot read user config %s: %v", path, err))
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, "", clierr.Wrap(err, clierr.ExitConfig, fmt.Sprintf("invalid user config %s: %v", path, err))
	}
	return v, path, nil
}

func loadProject(rootDir string) (*viper.Viper, string, error) {
	v := viper.New()
	v.SetDefault("webDir", "www")
	v.SetDefault("android.path", "android")
	v.SetDefault("android.releaseType", DefaultReleaseType)
	v.SetDefault("android.signingType", DefaultSigningType)
	v.SetDefault("ios.path", "ios")
	v.SetDefault("ios.scheme", "App")
	v.SetDefault("ios.configuration", "Release")

	v.SetConfigName(ProjectConfigName)
	v.AddConfigPath(rootDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, "", nil
		}
		return nil, "", clierr.Wrap(err, clierr.ExitConfig, fmt.Sprintf("invalid project config in %s: %v", rootDir, err))
	}
	return v, v.ConfigFileUsed(), nil
}

func resolvePath(rootDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(rootDir, p)
}

// SaveUserPreference writes key=value into the user config file at path,
// keeping every other key already stored there.
func SaveUserPreference(path, key string, value any) error {
	if path == "" {
		return clierr.Fatal("no user config location available; pass --config", clierr.ExitConfig)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return clierr.Wrap(err, clierr.ExitConfig, fmt.Sprintf("invalid user config %s: %v", path, err))
		}
	}
	v.Set(key, value)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write user config %s: %w", path, err)
	}
	return nil
}
