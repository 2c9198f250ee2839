package main

import (
	"github.com/sustainlab/ecopipe/pkg/cli"
)

func main() {
	cli.Execute()
}
