package main

import (
	"github.com/feedcast/feedcast/cmd"
	"github.com/feedcast/feedcast/config"
	"github.com/feedcast/feedcast/log"
	"github.com/feedcast/feedcast/network"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	network.SetTimeout(config.FetchTimeout())

	cmd.Execute()
}
