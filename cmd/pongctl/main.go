package main

import "github.com/mcoot/pongserver/internal/cli"

func main() {
	cli.Execute()
}
