package main

import "github.com/langchou/autodata/internal/cli"

func main() {
	cli.Execute()
}
