package main

import (
	"github.com/shouni/go-happyhour-scout/cmd"
)

func main() {
	cmd.Execute()
}
