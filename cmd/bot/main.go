package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/fsubgate/internal/bot"
	"github.com/dmitrijs2005/fsubgate/internal/bot/config"
)

func main() {

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := bot.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
	}
}
