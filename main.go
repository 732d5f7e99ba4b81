package main

import "github.com/DhKDc/precios3d/cmd"

func main() {
	cmd.Execute()
}
