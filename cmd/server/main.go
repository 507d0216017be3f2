package main

import (
	"context"
	"log"

	"github.com/trueheartapps/versesync/internal/server"
	"github.com/trueheartapps/versesync/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
