package main

import "clipharvest/cmd"

func main() {
	cmd.Execute()
}
