package main

import (
	"os"

	"git.home.luguber.info/inful/tgbot/cmd/tgbot/commands"
)

func main() {
	os.Exit(commands.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
