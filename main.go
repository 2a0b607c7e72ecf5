// Package main is the entry point of the textembedder binary.
package main

import "textembedder/cmd"

func main() {
	cmd.Execute()
}
