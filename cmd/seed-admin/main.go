package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/mwhebadata/erp_backend/config"
	"github.com/mwhebadata/erp_backend/models"
)

// Creates the first admin user. Meant for fresh installs.
func main() {
	name := flag.String("name", "Administrator", "display name")
	username := flag.String("username", "admin", "login username")
	password := flag.String("password", "", "password (required)")
	flag.Parse()

	if *password == "" {
		fmt.Fprintln(os.Stderr, "usage: seed-admin -password <password> [-username admin] [-name Administrator]")
		os.Exit(1)
	}

	godotenv.Load()
	config.ConnectDatabaseWithRetry()

	if err := models.MigrateTable(); err != nil {
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}

	user, err := models.CreateUser(context.Background(), models.NewUser{
		Name:     *name,
		Username: *username,
		Password: *password,
		Role:     models.UserRoleAdmin,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not create admin: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("created admin user %q (id %d)\n", user.Username, user.ID)
}
