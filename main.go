package main

import (
	"github.com/catalyst-network/catalyst-agent/cmd"
)

func main() {
	cmd.Execute()
}
