// Command bibliotecactl administers the school library backend from the shell.
package main

import "github.com/JonMunkholm/biblioteca/internal/cli"

func main() {
	cli.Execute()
}
