package main

import "github.com/ogulcanaydogan/vCPU-Quota-Guardian/internal/cli"

func main() {
	cli.Execute()
}
