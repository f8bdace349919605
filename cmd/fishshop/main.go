package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/SergIvo/dvmn-fish-shop-bot/core/cmd"
	"github.com/SergIvo/dvmn-fish-shop-bot/shop/app"
)

func main() {
	// a missing .env is fine; the environment may carry everything
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env loaded: %v", err)
	}

	if err := cmd.Run(cmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig:        app.LoadConfig,
		Bootstrap:         app.Bootstrap,
	}); err != nil {
		log.Fatal(err)
	}
}
