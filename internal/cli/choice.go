package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/pflag"
)

var _ pflag.Value = (*choiceValue)(nil)

// choiceValue is a string flag restricted to a fixed set of values. The set
// is enforced by Set, so a bad value fails argument parsing and the command's
// handler never runs.
type choiceValue struct {
	target  *string
	choices []string
}

func newChoiceValue(target *string, def string, choices []string) *choiceValue {
	*target = def
	return &choiceValue{target: target, choices: choices}
}

func (c *choiceValue) Set(s string) error {
	if !slices.Contains(c.choices, s) {
		return fmt.Errorf("must be one of %s", strings.Join(c.choices, ", "))
	}
	*c.target = s
	return nil
}

func (c *choiceValue) String() string {
	if c.target == nil {
		return ""
	}
	return *c.target
}

func (c *choiceValue) Type() string {
	return "string"
}
