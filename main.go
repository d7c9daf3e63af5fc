package main

import (
	"github.com/adagearchive/moderation/internal/cmd"
)

func main() {
	cmd.Execute()
}
