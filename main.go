package main

import (
	"probefilt/cmd"
)

func main() {
	cmd.Execute() // initialize cobra commands
}
