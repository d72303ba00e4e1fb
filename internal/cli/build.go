package cli

import (
	"context"

	"github.com/psantana5/capctl/internal/config"
	"github.com/psantana5/capctl/internal/tasks/build"
	"github.com/spf13/cobra"
)

func newBuildCmd(d *Deps) *cobra.Command {
	var opts build.Options

	return d.command(Descriptor{
		Use:   "build <platform>",
		Short: "builds the release version of the selected platform",
		Long: `Build the release version of the android or ios platform.

Options left unset fall back to the values in capctl.config.json.`,
		Example: `  capctl build android --keystorepath release.jks --keystorepass secret \
    --keystorealias upload --keystorealiaspass secret --androidreleasetype APK
  capctl build ios --scheme App --configuration Release`,
		Args:       cobra.ExactArgs(1),
		ValidArgs:  []string{build.PlatformAndroid, build.PlatformIOS},
		Instrument: true,
		Options: []OptionSpec{
			{Flag: "scheme", Description: "iOS Scheme to build", Target: &opts.Scheme},
			{Flag: "flavor", Description: "Android Flavor to build", Target: &opts.Flavor},
			{Flag: "keystorepath", Description: "Path to the keystore", Target: &opts.KeystorePath},
			{Flag: "keystorepass", Description: "Password to the keystore", Target: &opts.KeystorePass},
			{Flag: "keystorealias", Description: "Key Alias in the keystore", Target: &opts.KeystoreAlias},
			{Flag: "configuration", Description: "Configuration name of the iOS Scheme", Target: &opts.Configuration},
			{Flag: "keystorealiaspass", Description: "Password for the Key Alias", Target: &opts.KeystoreAliasPass},
			{
				Flag:        "androidreleasetype",
				Description: "Android release type; APK or AAB",
				Choices:     config.ReleaseTypes,
				Target:      &opts.AndroidReleaseType,
			},
			{
				Flag:        "signing-type",
				Description: "Program used to sign apps (default: jarsigner)",
				Choices:     config.SigningTypes,
				Target:      &opts.SigningType,
			},
		},
		Action: func(ctx context.Context, args []string) error {
			return d.NewBuilder(d.Config, d.Run.Logger()).Build(ctx, args[0], opts)
		},
	})
}
