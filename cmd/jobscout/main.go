package main

import (
	"log"

	_ "github.com/joho/godotenv/autoload"

	"github.com/jobscoutbot/jobscout/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Fatal(err)
	}
}
