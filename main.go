package main

import "trackdl/cmd"

func main() {
	cmd.Execute()
}
