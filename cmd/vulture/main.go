package main

import "vulture/internal/cli"

func main() {
	cli.Execute()
}
