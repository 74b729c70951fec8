package main

import (
	"github.com/alpine-vis/forge/cmd/forge/internal"
)

func main() {
	internal.Execute()
}
