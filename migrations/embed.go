// Package migrations схема БД бота, встраивается в бинарник
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
