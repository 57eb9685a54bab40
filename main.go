package main

import "bclharness/cmd"

func main() {
	cmd.Execute()
}
