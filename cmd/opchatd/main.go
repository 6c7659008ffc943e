package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/vialibre/opchat/internal/daemon"
	"github.com/vialibre/opchat/internal/profile"
	"go.uber.org/fx"
)

func main() {
	operatorFlag := flag.String("operator", "", "operator code (overrides config default)")
	flag.Parse()

	code := profile.Resolve(*operatorFlag)
	if err := profile.ValidateCode(code); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	app := fx.New(
		daemon.Module(daemon.Params{OperatorCode: code}),
	)

	app.Run()
}
