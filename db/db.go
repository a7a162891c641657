package db

import (
	"strings"

	"qrono/config"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var Instance *gorm.DB

func Init() {
	var (
		db  *gorm.DB
		err error
	)
	gormConfig := &gorm.Config{
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	}
	if config.MYSQL_DSN != "" {
		db, err = gorm.Open(mysql.Open(config.MYSQL_DSN), gormConfig)
	} else if config.SQLITE_FILE != "" {
		db, err = gorm.Open(sqlite.Open(sqliteDSN(config.SQLITE_FILE)), gormConfig)
	} else {
		panic("either MYSQL_DSN or SQLITE_FILE must be configured")
	}
	if err != nil || db == nil {
		panic(err)
	}
	Instance = db
}

// sqliteDSN enables foreign-key enforcement on every pooled connection;
// the ownership chain relies on ON DELETE CASCADE.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}
