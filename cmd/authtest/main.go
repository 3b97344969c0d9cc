package main

import "github.com/nfrund/authtest/cmd/authtest/cmd"

func main() {
	cmd.Execute()
}
