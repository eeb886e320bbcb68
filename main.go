package main

import "github.com/jmehdipour/unit-notifier/cmd"

func main() {
	cmd.Execute()
}
