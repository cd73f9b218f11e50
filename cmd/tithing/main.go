package main

import "github.com/cleared-dev/tithing/internal/commands"

func main() {
	commands.Execute()
}
