package main

import "martianoff/ecsgen/cmd/ecsgen/commands"

func main() {
	commands.Execute()
}
