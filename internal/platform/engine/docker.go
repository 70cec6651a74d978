package engine

import (
	"context"
	"log"
	"time"

	"github.com/docker/docker/client"
)

// Connect builds a Docker client from the environment (DOCKER_HOST etc.).
// The daemon being down is not fatal at startup; individual operations
// report it as unavailable instead.
func Connect() *client.Client {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		log.Fatalf("Could not create Docker client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := cli.Ping(ctx); err != nil {
		log.Printf("WARNING: Docker daemon unreachable: %v", err)
	}
	return cli
}
