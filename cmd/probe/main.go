package main

import "github.com/OpenTraceLab/OpenTraceProbe/cmd/probe/cmd"

func main() {
	cmd.Execute()
}
