package main

import "zuzuplan-backend/cmd/cli"

func main() {
	cli.Execute()
}
