package main

import "github.com/borealdb/boreal/cmd/vec-tool/cmd"

func main() {
	cmd.Execute()
}
