package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/psantana5/capctl/internal/clierr"
)

const exportOptionsPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>method</key>
	<string>app-store-connect</string>
</dict>
</plist>
`

func (b *Builder) buildIOS(ctx context.Context, opts Options) error {
	if b.goos != "darwin" {
		return clierr.Fatal("building for iOS requires macOS with Xcode installed")
	}
	if err := requireDir(PlatformIOS, b.cfg.IOS.Path); err != nil {
		return err
	}

	scheme := firstNonEmpty(opts.Scheme, b.cfg.IOS.Scheme, "App")
	configuration := firstNonEmpty(opts.Configuration, b.cfg.IOS.Configuration, "Release")
	dir := filepath.Join(b.cfg.IOS.Path, "App")
	archive := scheme + ".xcarchive"

	b.logger.Info(fmt.Sprintf("archiving scheme %s (%s)", scheme, configuration))
	err := b.runner.Run(ctx, dir, "xcodebuild",
		"-workspace", "App.xcworkspace",
		"-scheme", scheme,
		"-destination", "generic/platform=iOS",
		"-configuration", configuration,
		"-archivePath", archive,
		"archive",
	)
	if err != nil {
		return clierr.Wrap(err, clierr.ExitFailure, fmt.Sprintf("xcodebuild archive failed: %v", err))
	}

	plist := filepath.Join(dir, "archive-export-options.plist")
	if err := os.WriteFile(plist, []byte(exportOptionsPlist), 0o644); err != nil {
		return fmt.Errorf("failed to write export options: %w", err)
	}
	defer os.Remove(plist)

	err = b.runner.Run(ctx, dir, "xcodebuild",
		"archive",
		"-archivePath", archive,
		"-exportArchive",
		"-exportOptionsPlist", filepath.Base(plist),
		"-exportPath", "output",
		"-allowProvisioningUpdates",
		"-configuration", configuration,
	)
	if err != nil {
		return clierr.Wrap(err, clierr.ExitFailure, fmt.Sprintf("xcodebuild export failed: %v", err))
	}

	b.logger.Info(fmt.Sprintf("Successfully generated an IPA in %s", filepath.Join(dir, "output")))
	return nil
}
