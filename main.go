package main

import "sethosts/internal/cli"

func main() {
	cli.Execute()
}
