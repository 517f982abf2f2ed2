package main

import (
	"fmt"
	"os"

	"github.com/kilianp07/truckcharge/app"
	"github.com/kilianp07/truckcharge/cmd"
	"github.com/kilianp07/truckcharge/core/apperr"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, app.UserMessage(err))
		if apperr.KindOf(err) == apperr.Internal {
			fmt.Fprintln(os.Stderr, "cause:", err)
		}
		os.Exit(1)
	}
}
