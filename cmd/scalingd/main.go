package main

import "github.com/LeJamon/goScalingd/internal/cli"

func main() {
	cli.Execute()
}
