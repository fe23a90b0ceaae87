package main

//go-build: CGO_ENABLED=0

import (
	"github.com/robotalks/sbus.go/pkg/cli/sh"
)

func main() {
	sh.Main()
}
