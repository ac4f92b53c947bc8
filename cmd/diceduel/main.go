package main

import "github.com/mcoot/diceduel/internal/cli"

func main() {
	cli.Execute()
}
