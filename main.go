package main

import "github.com/will-rowe/ppsketch/cmd"

func main() {
	cmd.Execute()
}
