package main

import "github.com/fakeyudi/voxrec/cmd"

func main() {
	cmd.Execute()
}
