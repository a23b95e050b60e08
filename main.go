package main

import "github.com/takeshy/ddsbatch/cmd"

func main() {
	cmd.Execute()
}
