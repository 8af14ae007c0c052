package main

import (
	"github.com/Laisky/laisky-gallery-search/cmd"
)

func main() {
	cmd.Execute()
}
