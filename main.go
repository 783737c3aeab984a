package main

import "Slidecast/cmd"

func main() {
	cmd.Execute()
}
