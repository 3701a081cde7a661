package main

import "github.com/kamusis/scout-cli/cmd"

func main() {
	cmd.Execute()
}
