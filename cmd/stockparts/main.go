// Command stockparts records stock parts from the terminal or a web form.
package main

import "github.com/mesh-intelligence/stockparts/internal/cli"

func main() {
	cli.Execute()
}
