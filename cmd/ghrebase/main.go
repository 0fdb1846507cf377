// Command ghrebase rebases a pull request entirely through its forge's
// HTTP API.
package main

import "github.com/andrewhampton/ghrebase/commands"

func main() {
	commands.Execute()
}
