package main

import "flick/cmd"

func main() {
	cmd.Execute()
}
