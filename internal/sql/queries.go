package sql

import (
	"embed"
)

//go:embed migrations/*.sql
var Migrations embed.FS

//go:embed queries/get_document.sql
var GetDocument string

//go:embed queries/put_document.sql
var PutDocument string

//go:embed queries/delete_document.sql
var DeleteDocument string
