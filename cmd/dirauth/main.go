package main

import (
	"github.com/aussiebroadwan/dirauth/internal/cli"
)

func main() {
	cli.Execute()
}
