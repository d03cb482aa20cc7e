package app

import (
	"database/sql"

	"github.com/pollwheel/pollwheel/config"
)

type App struct {
	*sql.DB
	config.Config
}
