package main

import "racestats/cmd/racestats/cmd"

func main() {
	cmd.Execute()
}
