package main

import "github.com/Digital-Shane/title-fetch/internal/cmd"

func main() {
	cmd.Execute()
}
