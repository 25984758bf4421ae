package main

import (
	"log"
	"os"

	"github.com/Abra313/socrease-lesson-note-management/core"
	"github.com/Abra313/socrease-lesson-note-management/storage/database"
	"github.com/Abra313/socrease-lesson-note-management/storage/database/postgres"
)

// admin manages accounts and migrations straight against the postgres database:
//
//	admin adduser -name "Head Teacher" -email head@school.ng -admin
//	admin migrate status
func main() {
	logger := log.New(os.Stderr, "LNMS-ADMIN : ", log.LstdFlags|log.Lshortfile)

	conf := core.NewConfig()
	if conf.Database.Engine != "postgres" {
		logger.Fatalf("admin needs a postgres database (engine is %q)", conf.Database.Engine)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(err)
	}

	cli := commandLine{db: db, accRepo: pgrepos.NewAccountRepository(db)}
	err = cli.run(os.Args)
	if cerr := db.Close(); cerr != nil {
		logger.Print(cerr)
	}
	if err != nil {
		if err != errHelp {
			logger.Printf("error: %v", err)
		}
		os.Exit(1)
	}
}
