package main

import "github.com/Mohsinsiddi/battlepass/cmd"

func main() {
	cmd.Execute()
}
