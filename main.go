package main

import "github.com/KaramelBytes/tablestat/cmd"

func main() {
	cmd.Execute()
}
