package main

import "github.com/mcoot/seabattle/internal/cli"

func main() {
	cli.Execute()
}
