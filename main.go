package main

import "agentloop/cmd"

func main() {
	cmd.Execute()
}
