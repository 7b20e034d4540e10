package main

import (
	"stdmark-backend/cmd/stdmark-cli/cmd"
)

func main() {
	cmd.Execute()
}
