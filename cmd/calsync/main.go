package main

import "github.com/teampulse/calsync/internal/cli"

func main() {
	cli.Execute()
}
