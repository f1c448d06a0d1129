package main

import (
	"github.com/ColonelBlimp/whistlecode/cmd"
	"github.com/ColonelBlimp/whistlecode/internal/recovery"
)

func main() {
	defer recovery.HandlePanic()
	cmd.Execute()
}
