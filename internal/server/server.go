package server

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	// Load env file into environments.
	_ "github.com/joho/godotenv/autoload"

	"github.com/pelongngoan/jobbuilder-server-sub000/internal/database"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/realtime"
)

// MyServer contain database instance and the realtime hub shared by routes
type MyServer struct {
	DB  *database.DBinstanceStruct
	Hub *realtime.Hub
}

// NewServer construct new http.Server instance bound to the configured port
func NewServer(db *database.DBinstanceStruct) *http.Server {
	port, _ := strconv.Atoi(os.Getenv("PORT"))
	if port == 0 {
		port = 8080
	}

	s := &MyServer{
		DB:  db,
		Hub: realtime.NewHub(),
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}
