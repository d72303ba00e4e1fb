package app

import (
	"strings"

	"github.com/psantana5/capctl/internal/cli"
)

// earlyFlags are the root flags needed before the command tree exists
type earlyFlags struct {
	config    string
	logLevel  string
	logFormat string
}

// scanEarlyFlags picks --config, --log-level and --log-format out of argv in
// either the "--flag value" or the "--flag=value" form. cobra parses argv
// again later; this scan never reports errors.
func scanEarlyFlags(argv []string) earlyFlags {
	var f earlyFlags
	targets := map[string]*string{
		cli.FlagConfig:    &f.config,
		cli.FlagLogLevel:  &f.logLevel,
		cli.FlagLogFormat: &f.logFormat,
	}

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		if arg == "--" {
			break
		}
		if !strings.HasPrefix(arg, "--") {
			continue
		}
		name, value, hasValue := strings.Cut(arg[2:], "=")
		target, ok := targets[name]
		if !ok {
			continue
		}
		if !hasValue {
			if i+1 >= len(argv) {
				break
			}
			i++
			value = argv[i]
		}
		*target = value
	}
	return f
}
