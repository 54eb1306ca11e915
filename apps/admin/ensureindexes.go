package main

import (
	"context"

	"github.com/trezcool/darasa/storage/database"
)

var ensureIndexesFunc = database.EnsureIndexes // mockable

func (cli *commandLine) ensureIndexes() error {
	return ensureIndexesFunc(context.Background(), cli.db)
}
