package main

import "github.com/growthcompass/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}
