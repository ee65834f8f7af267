package main

import "github.com/ppiankov/runlens/internal/cli"

func main() {
	cli.Execute()
}
