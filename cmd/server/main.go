/*
main.go - Application entry point

PURPOSE:
  Starts the egg cooperative ledger. All commands, including the HTTP
  server, live in the cli package.

EXAMPLES:
  # Run the API with a file database
  ./server serve --db ./data/eggs.db

  # Run the API in memory on another port
  EGGS_BACKEND=memory ./server serve --port 3000

  # Admin commands
  ./server people add Alice
  ./server record --price 10 1=3 2=7
  ./server dues --clear
  ./server migrate version

CONFIGURATION:
  See config/config.go for the TOML file, .env and EGGS_* variables.

SEE ALSO:
  - cli/serve.go: Server startup and graceful shutdown
  - api/server.go: Router configuration
*/
package main

import "github.com/warp/egg-ledger/cli"

func main() {
	cli.Execute()
}
