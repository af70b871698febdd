package main

import "castellan/internal/cli"

func main() {
	cli.Execute()
}
