package main

import "github.com/bonbon-indexer/bonbon/cmd/bonbon/cmd"

func main() {
	cmd.Execute()
}
