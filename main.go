package main

import "github.com/buoyantio/strest-hello/cmd"

func main() {
	cmd.Execute()
}
