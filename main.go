package main

import "github.com/rcanete/orion/internal/commands"

func main() {
	commands.Execute()
}
