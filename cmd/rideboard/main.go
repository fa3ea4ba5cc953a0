// Package main is the rideboard CLI entry point.
package main

import (
	"github.com/leapstack-labs/rideboard/internal/cli"
)

func main() {
	cli.Execute()
}
