package main

import "github.com/versal-platform/botlogic/cmd/botlogic/cmd"

func main() {
	cmd.Execute()
}
