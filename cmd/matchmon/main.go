package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	fx "github.com/robotalks/sim800.go/pkg/framework"
	"github.com/robotalks/sim800.go/pkg/monitor"
)

func init() {
	monitor.SetupFlags()
}

func main() {
	flag.Parse()

	w := monitor.NewConfig().MustNewWatcher()
	fx.NewRunner().
		HandleSignals().
		Go(w).
		WaitOrFail()
}
