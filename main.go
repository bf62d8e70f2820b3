package main

import "github.com/mateconpizza/marklet/cmd"

func main() {
	cmd.Execute()
}
