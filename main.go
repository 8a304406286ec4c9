package main

import "github.com/bish-sh/bish/cmd"

func main() {
	cmd.Execute()
}
