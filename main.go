package main

import "github.com/KnowOneActual/image-processor/cmd"

func main() {
	cmd.Execute()
}
