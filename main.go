package main

import "playbook/cmd"

func main() {
	cmd.Execute()
}
