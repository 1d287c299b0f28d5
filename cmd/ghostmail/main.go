package main

import "github.com/nhle/ghostmail/internal/cli"

func main() {
	cli.Execute()
}
