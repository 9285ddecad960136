package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/shiftdesk/workforce-api/internal/config"
	"github.com/shiftdesk/workforce-api/pkg/auth"
)

func main() {
	config.LoadDotEnv()

	if len(os.Args) < 3 {
		fmt.Println("Usage: keygen <orgID> <keyName>")
		os.Exit(1)
	}

	orgID, name := os.Args[1], os.Args[2]
	if strings.ContainsAny(orgID+name, ".:") {
		fmt.Println("Error: orgID and keyName may not contain '.' or ':'")
		os.Exit(1)
	}
	secret := os.Getenv("API_MASTER_SECRET")
	if secret == "" {
		fmt.Println("Error: API_MASTER_SECRET not found in .env")
		os.Exit(1)
	}

	apiKey := auth.New(os.Getenv("JWT_SECRET"), secret).GenerateHMACKey(auth.KeySubject(orgID, name))
	fmt.Printf("Generated Key for %s in %s:\n%s\n", name, orgID, apiKey)
}
