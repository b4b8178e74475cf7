package database

import (
	"fmt"
	"net"
	"strconv"

	"github.com/qdrant/go-client/qdrant"
)

func NewQdrantClient(addr string) (*qdrant.Client, error) {
	if addr == "" {
		addr = "localhost:6334"
	}

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
		portStr = "6334"
	}

	port, _ := strconv.Atoi(portStr)

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize qdrant client: %w", err)
	}

	return client, nil
}
