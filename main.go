package main

import "jwlrep/cmd"

func main() {
	cmd.Execute()
}
