package main

import "defiwatch/internal/cli"

func main() {
	cli.Execute()
}
