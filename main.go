package main

import "github.com/SortieWorks/sortiechart-cli/cmd"

func main() {
	cmd.Execute()
}
