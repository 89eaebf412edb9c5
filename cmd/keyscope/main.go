package main

import "github.com/dbsmedya/keyscope/cmd/keyscope/cmd"

func main() {
	cmd.Execute()
}
