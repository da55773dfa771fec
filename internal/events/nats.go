package events

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// ConnectNATS dials the NATS server with reconnects enabled.
func ConnectNATS(url, name string, timeout time.Duration) (*nats.Conn, error) {
	if url == "" {
		return nil, fmt.Errorf("nats url must not be empty")
	}

	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.Timeout(timeout),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to nats: %w", err)
	}
	return conn, nil
}
