package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"biotrack.com.au/biotrack/web/middlewares"
)

func main() {
	subject := flag.String("subject", "operator", "Token subject")
	ttl := flag.Duration("ttl", time.Hour, "Token lifetime")
	flag.Parse()

	secret := os.Getenv("BIOTRACK_JWT_SECRET")
	if secret == "" {
		log.Fatal("BIOTRACK_JWT_SECRET is required")
	}

	token, err := middlewares.CreateJWT([]byte(secret), *subject, *ttl)
	if err != nil {
		log.Fatalf("failed to create token: %v", err)
	}
	fmt.Println(token)
}
