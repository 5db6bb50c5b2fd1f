package main

import "plastikhb/internal/cli"

func main() {
	cli.Execute()
}
