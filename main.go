package main

import "github.com/qobs-build/qobsgen/cmd"

func main() {
	cmd.Execute()
}
