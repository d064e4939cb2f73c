package main

import (
	"wow_check/cmd"
)

func main() {
	cmd.Execute()
}
