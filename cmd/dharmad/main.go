// Command dharmad runs the dharma HTTP server as a standalone process.
package main

import (
	"context"
	"log"
	"os"
	"strings"

	"dharma/internal/config"
	"dharma/internal/serverrun"
)

func main() {
	cfg, _, _, err := config.Load(configPathFromEnv())
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := serverrun.Run(context.Background(), cfg, serverrun.Options{PreloadModel: true}); err != nil {
		log.Fatalf("dharmad: %v", err)
	}
}

// configPathFromEnv returns DHARMA_CONFIG when set; empty selects the default
// lookup order.
func configPathFromEnv() string {
	return strings.TrimSpace(os.Getenv("DHARMA_CONFIG"))
}
