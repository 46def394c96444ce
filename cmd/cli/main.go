package main

import "github.com/metaflame/cmd/cli/cmd"

func main() {
	cmd.Execute()
}
