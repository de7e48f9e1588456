package main

import "github.com/swarmdock-dev/swarmdock/internal/cli"

func main() {
	cli.Execute()
}
