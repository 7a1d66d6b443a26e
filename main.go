package main

import "github.com/agentic-research/exporttree/cmd"

func main() {
	cmd.Execute()
}
