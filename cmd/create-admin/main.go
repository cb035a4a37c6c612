// Command-line tool to generate an admin account with random credentials.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/pelongngoan/jobbuilder-server-sub000/internal/database"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/model"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/utilities"
	"gorm.io/gorm"
)

// generateUniqueEmail tries until an unused admin email is found
func generateUniqueEmail(db *gorm.DB) string {
	for {
		suffix, err := utilities.RandomHex(4)
		if err != nil {
			log.Fatal(err)
		}
		email := fmt.Sprintf("admin_%s@jobbuilder.local", suffix)
		var count int64
		db.Model(&model.Account{}).Where("email = ?", email).Count(&count)
		if count == 0 {
			return email
		}
		// If email exists, loop again
	}
}

func main() {

	db, err := database.GetMainDB()
	if err != nil {
		log.Fatalf("Database failed to initialized: %s", err)
	}

	email := generateUniqueEmail(db.DB)
	password, err := utilities.RandomHex(8)
	if err != nil {
		log.Fatal("failed to generate password: ", err)
	}

	hashedPassword, err := utilities.HashPassword(password)
	if err != nil {
		log.Fatal("failed to hash password: ", err)
	}

	admin := model.Account{
		Email:    email,
		Password: hashedPassword,
		Role:     model.RoleAdmin,
		Verified: true,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Fatal("failed to create admin account: ", err)
	}
	if err := db.Create(&model.AdminProfile{AccountID: admin.ID}).Error; err != nil {
		log.Fatal("failed to create admin profile: ", err)
	}

	// Print credentials (only show plain password here!)
	fmt.Println("Admin credentials generated successfully!")
	fmt.Println("======================================")
	fmt.Printf("Email:    %s\n", admin.Email)
	fmt.Printf("Password: %s\n", password)
	fmt.Println("======================================")

	os.Exit(0)
}
