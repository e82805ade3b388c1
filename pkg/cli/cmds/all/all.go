// Package all registers all shell commands.
package all

import (
	_ "github.com/robotalks/sim800.go/pkg/cli/cmds/at"
	_ "github.com/robotalks/sim800.go/pkg/cli/cmds/gprs"
)
