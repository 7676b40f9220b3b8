// Package main is the entry point for the refmetrics CLI tool, which ingests
// soccer match event files and models referee/playstyle discipline patterns.
package main

import "github.com/pitchside/refmetrics/cmd"

func main() {
	cmd.Execute()
}
