package main

import "github.com/itsmostafa/scriptfeed/cmd"

func main() {
	cmd.Execute()
}
