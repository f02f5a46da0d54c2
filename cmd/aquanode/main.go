package main

import "github.com/itohio/aquanode/cmd/aquanode/commands"

func main() {
	commands.Execute()
}
