// Command tokengen prints a bearer token carrying the given identity, signed
// with JWT_SECRET. It is meant for local testing of the HTTP API.
package main

import (
	"flag"
	"fmt"
	"log"

	"nutriregistry/internal/config"
	"nutriregistry/internal/models"
	"nutriregistry/internal/services"

	"github.com/spf13/viper"
)

func main() {
	identity := flag.String("identity", "", "identity to embed in the token (defaults to REGISTRY_OWNER)")
	flag.Parse()

	cfg, err := config.Load(viper.New())
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if *identity == "" {
		*identity = cfg.RegistryOwner
	}

	token, err := services.NewIdentityService(cfg.JWTSecret, cfg.TokenTTL).IssueToken(models.Identity(*identity))
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Println(token)
}
