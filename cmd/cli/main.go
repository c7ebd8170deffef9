package main

import (
	"github.com/mchmarny/varsig/pkg/cli"
)

func main() {
	cli.Execute()
}
