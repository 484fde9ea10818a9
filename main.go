package main

import "github.com/KaramelBytes/metricdeck-cli/cmd"

func main() {
	cmd.Execute()
}
