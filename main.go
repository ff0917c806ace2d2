package main

import "github.com/jsphweid/midicom/cmd"

func main() {
	cmd.Execute()
}
