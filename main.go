package main

import (
	"context"
	"os"

	"github.com/paresh-singh/Vehicle-parking/internal/cli"
	"github.com/paresh-singh/Vehicle-parking/internal/logging"
)

func main() {
	if err := cli.RootCmd().ExecuteContext(context.Background()); err != nil {
		logging.Logger().Errorf("%v", err)
		os.Exit(1)
	}
}
