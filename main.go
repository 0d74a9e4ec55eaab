package main

import (
	"github.com/sidkik/hoist/cmd"
	"github.com/sidkik/hoist/cmd/util"
)

func main() {
	defer util.HandlePanic()
	cmd.Execute()
}
