package main

import "github.com/kozaktomas/face-clock/cmd"

func main() {
	cmd.Execute()
}
