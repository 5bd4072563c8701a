package main

import "github.com/secdesk/backend/cmd/admin/commands"

func main() {
	commands.Execute()
}
