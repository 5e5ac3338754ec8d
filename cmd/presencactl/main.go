package main

import "github.com/saturnino-fabrica-de-software/presenca/internal/cli"

func main() {
	cli.Execute()
}
