package main

import "feedtrack/internal/cmd"

func main() {
	cmd.Run()
}
