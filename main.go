package main

import "github.com/tinwren/hdlcov/cmd"

func main() {
	cmd.Execute()
}
