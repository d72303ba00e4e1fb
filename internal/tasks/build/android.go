package build

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/psantana5/capctl/internal/clierr"
	"github.com/psantana5/capctl/internal/config"
)

type androidPlan struct {
	flavor            string
	releaseType       string
	signingType       string
	keystorePath      string
	keystorePass      string
	keystoreAlias     string
	keystoreAliasPass string
}

func (b *Builder) resolveAndroid(opts Options) androidPlan {
	a := b.cfg.Android
	return androidPlan{
		flavor:            firstNonEmpty(opts.Flavor, a.Flavor),
		releaseType:       firstNonEmpty(opts.AndroidReleaseType, a.ReleaseType, config.DefaultReleaseType),
		signingType:       firstNonEmpty(opts.SigningType, a.SigningType, config.DefaultSigningType),
		keystorePath:      firstNonEmpty(opts.KeystorePath, a.KeystorePath),
		keystorePass:      firstNonEmpty(opts.KeystorePass, a.KeystorePassword),
		keystoreAlias:     firstNonEmpty(opts.KeystoreAlias, a.KeystoreAlias),
		keystoreAliasPass: firstNonEmpty(opts.KeystoreAliasPass, a.KeystoreAliasPassword),
	}
}

// gradleTask returns e.g. bundleProdRelease or assembleRelease
func (p androidPlan) gradleTask() string {
	verb := "bundle"
	if p.releaseType == "APK" {
		verb = "assemble"
	}
	return verb + capitalize(p.flavor) + "Release"
}

// artifacts returns the unsigned input and signed output paths, relative to
// the android directory
func (p androidPlan) artifacts() (unsigned, signed string) {
	name := "app-release"
	if p.flavor != "" {
		name = "app-" + p.flavor + "-release"
	}
	outputs := filepath.Join("app", "build", "outputs")

	if p.releaseType == "APK" {
		dir := filepath.Join(outputs, "apk", "release")
		if p.flavor != "" {
			dir = filepath.Join(outputs, "apk", p.flavor, "release")
		}
		return filepath.Join(dir, name+"-unsigned.apk"), filepath.Join(dir, name+"-signed.apk")
	}

	dir := filepath.Join(outputs, "bundle", "release")
	if p.flavor != "" {
		dir = filepath.Join(outputs, "bundle", p.flavor+"Release")
	}
	return filepath.Join(dir, name+".aab"), filepath.Join(dir, name+"-signed.aab")
}

func (p androidPlan) signArgs(unsigned, signed string) (string, []string) {
	if p.signingType == "apksigner" {
		return "apksigner", []string{
			"sign",
			"--ks", p.keystorePath,
			"--ks-pass", "pass:" + p.keystorePass,
			"--ks-key-alias", p.keystoreAlias,
			"--key-pass", "pass:" + p.keystoreAliasPass,
			"--out", signed,
			unsigned,
		}
	}
	return "jarsigner", []string{
		"-sigalg", "SHA256withRSA",
		"-digestalg", "SHA-256",
		"-keystore", p.keystorePath,
		"-keypass", p.keystoreAliasPass,
		"-storepass", p.keystorePass,
		"-signedjar", signed,
		unsigned,
		p.keystoreAlias,
	}
}

func (p androidPlan) validate() error {
	if !config.ValidReleaseType(p.releaseType) {
		return clierr.Fatal(fmt.Sprintf("invalid android release type %q; must be one of %s",
			p.releaseType, strings.Join(config.ReleaseTypes, ", ")))
	}
	if !config.ValidSigningType(p.signingType) {
		return clierr.Fatal(fmt.Sprintf("invalid signing type %q; must be one of %s",
			p.signingType, strings.Join(config.SigningTypes, ", ")))
	}
	if p.signingType == "apksigner" && p.releaseType == "AAB" {
		return clierr.Fatal("apksigner cannot sign AAB bundles; use --signing-type jarsigner or --androidreleasetype APK")
	}
	if p.keystorePath == "" || p.keystorePass == "" || p.keystoreAlias == "" || p.keystoreAliasPass == "" {
		return clierr.Fatal("Missing options. Please supply all options for android signing. " +
			"(Keystore Path, Keystore Password, Keystore Key Alias, Keystore Key Password)")
	}
	return nil
}

func (b *Builder) buildAndroid(ctx context.Context, p androidPlan) error {
	if err := p.validate(); err != nil {
		return err
	}
	dir := b.cfg.Android.Path
	if err := requireDir(PlatformAndroid, dir); err != nil {
		return err
	}

	if r, ok := b.runner.(*ExecRunner); ok {
		r.Redact = append(r.Redact, p.keystorePass, p.keystoreAliasPass)
	}

	gradlew := "./gradlew"
	if b.goos == "windows" {
		gradlew = "gradlew.bat"
	}
	task := p.gradleTask()
	b.logger.Info(fmt.Sprintf("running gradle %s", task))
	if err := b.runner.Run(ctx, dir, gradlew, task); err != nil {
		return clierr.Wrap(err, clierr.ExitFailure, fmt.Sprintf("gradle %s failed: %v", task, err))
	}

	unsigned, signed := p.artifacts()
	tool, args := p.signArgs(unsigned, signed)
	b.logger.Info(fmt.Sprintf("signing %s with %s", unsigned, tool))
	if err := b.runner.Run(ctx, dir, tool, args...); err != nil {
		return clierr.Wrap(err, clierr.ExitFailure, fmt.Sprintf("signing with %s failed: %v", tool, err))
	}

	b.logger.Info(fmt.Sprintf("Successfully generated %s", filepath.Join(dir, signed)))
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
