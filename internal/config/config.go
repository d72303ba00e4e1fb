// Package config resolves the settings capctl runs with: the CLI's own
// metadata, the app project being built and the user's preferences.
package config

import (
	"slices"
)

// Version is the CLI version, overridden at build time with -ldflags.
var Version = "0.1.0-dev"

// Enumerations accepted for Android builds.
var (
	ReleaseTypes = []string{"AAB", "APK"}
	SigningTypes = []string{"apksigner", "jarsigner"}
)

const (
	DefaultReleaseType = "AAB"
	DefaultSigningType = "jarsigner"

	// ProjectConfigName is the project config file name without extension.
	ProjectConfigName = "capctl.config"
)

// Config is fully resolved at load time and read-only afterwards.
type Config struct {
	CLI       CLI       `json:"cli" yaml:"cli"`
	App       App       `json:"app" yaml:"app"`
	Android   Android   `json:"android" yaml:"android"`
	IOS       IOS       `json:"ios" yaml:"ios"`
	Telemetry Telemetry `json:"telemetry" yaml:"telemetry"`
	History   History   `json:"history" yaml:"history"`
	Log       Log       `json:"log" yaml:"log"`
}

// CLI describes the running binary
type CLI struct {
	Name           string `json:"name" yaml:"name"`
	Version        string `json:"version" yaml:"version"`
	UserConfigPath string `json:"user_config_path" yaml:"user_config_path"`
}

// App describes the project in the working directory
type App struct {
	RootDir    string `json:"root_dir" yaml:"root_dir"`
	ConfigPath string `json:"config_path,omitempty" yaml:"config_path,omitempty"`
	AppID      string `json:"app_id,omitempty" yaml:"app_id,omitempty"`
	AppName    string `json:"app_name,omitempty" yaml:"app_name,omitempty"`
	WebDir     string `json:"web_dir" yaml:"web_dir"`
}

// Found reports whether a project config file was read
func (a App) Found() bool {
	return a.ConfigPath != ""
}

// Android holds the Android platform settings and release build defaults
type Android struct {
	Path                  string `json:"path" yaml:"path"`
	Flavor                string `json:"flavor,omitempty" yaml:"flavor,omitempty"`
	ReleaseType           string `json:"release_type" yaml:"release_type"`
	SigningType           string `json:"signing_type" yaml:"signing_type"`
	KeystorePath          string `json:"keystore_path,omitempty" yaml:"keystore_path,omitempty"`
	KeystorePassword      string `json:"-" yaml:"-"`
	KeystoreAlias         string `json:"keystore_alias,omitempty" yaml:"keystore_alias,omitempty"`
	KeystoreAliasPassword string `json:"-" yaml:"-"`
}

// IOS holds the iOS platform settings
type IOS struct {
	Path          string `json:"path" yaml:"path"`
	Scheme        string `json:"scheme" yaml:"scheme"`
	Configuration string `json:"configuration" yaml:"configuration"`
}

// Telemetry holds the user's opt-in and where observations go
type Telemetry struct {
	Enabled      bool   `json:"enabled" yaml:"enabled"`
	Endpoint     string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	OTLPEndpoint string `json:"otlp_endpoint,omitempty" yaml:"otlp_endpoint,omitempty"`
	OTLPInsecure bool   `json:"otlp_insecure,omitempty" yaml:"otlp_insecure,omitempty"`
	Textfile     string `json:"textfile,omitempty" yaml:"textfile,omitempty"`
	Pushgateway  string `json:"pushgateway,omitempty" yaml:"pushgateway,omitempty"`
}

// History configures the local invocation history
type History struct {
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
}

// Log holds logging preferences
type Log struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// ValidReleaseType reports whether s is an accepted Android release type
func ValidReleaseType(s string) bool {
	return slices.Contains(ReleaseTypes, s)
}

// ValidSigningType reports whether s is an accepted signing program
func ValidSigningType(s string) bool {
	return slices.Contains(SigningTypes, s)
}
