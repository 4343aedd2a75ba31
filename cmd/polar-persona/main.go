package main

import "github.com/strrl/polar-persona/internal/cmd"

func main() {
	cmd.Execute()
}
