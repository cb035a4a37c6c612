package main

import (
	"log"

	"github.com/pelongngoan/jobbuilder-server-sub000/internal/database"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/server"
)

func main() {

	db, err := database.GetMainDB()
	if err != nil {
		log.Fatalf("Database failed to initialized: %s", err)
	}

	srv := server.NewServer(db)

	log.Printf("Server listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("cannot start server: %s", err)
	}
}
