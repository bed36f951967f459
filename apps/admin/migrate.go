package main

import (
	"github.com/trezcool/goose"

	"github.com/qwaszx001001/byzantium/storage/database"
)

var gooseRunFunc database.GooseRunFunc = goose.RunFS // mockable

func (cli *commandLine) migrate(args []string) error {
	return database.Migrate(gooseRunFunc, cli.db, args[0], args[1:]...)
}
