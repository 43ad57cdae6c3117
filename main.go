package main

import "github.com/RyanBlaney/prosody-analyzer/cmd"

func main() {
	cmd.Execute()
}
