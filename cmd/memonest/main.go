// Package main provides the memonest CLI.
package main

import "github.com/mesh-intelligence/memonest/internal/cli"

func main() {
	cli.Execute()
}
