package main

import "github.com/dr-rosen-rosen/bioTDMS-explainer/cmd"

func main() {
	cmd.Execute()
}
