package main

import "github.com/perdasilva/planr/cmd"

func main() {
	cmd.Execute()
}
