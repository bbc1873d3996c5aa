package main

import (
	"log"
	"os"

	approuters "github.com/arnold-1324/twitterClone-sub000/internal/app_routers"
	"github.com/arnold-1324/twitterClone-sub000/internal/configuration"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}

	container, err := configuration.BuildContainer(configPath)
	if err != nil {
		log.Fatalf("Failed to build container: %v", err)
	}

	// Ensure cleanup on shutdown
	defer container.Close()

	// Setup routers
	approuters.StartServer(container)
}
