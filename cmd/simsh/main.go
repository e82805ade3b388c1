package main

import (
	"github.com/robotalks/sim800.go/pkg/cli/sh"
	"github.com/robotalks/sim800.go/pkg/modem"

	_ "github.com/robotalks/sim800.go/pkg/cli/cmds/all"
)

//go-build: CGO_ENABLED=0

func init() {
	modem.SetupFlags()
}

func main() {
	sh.Main()
}
