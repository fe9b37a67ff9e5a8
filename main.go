package main

import "github.com/ddownloader/ddclient/cmd"

func main() {
	cmd.Execute()
}
