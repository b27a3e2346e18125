// Package config centralizes the server binary's flag parsing. It
// generalizes the flag set cmd/client/client.go already carries rather
// than reaching for a config library the teacher never uses.
package config

import "flag"

// ServerConfig holds the startup parameters for cmd/server.
type ServerConfig struct {
	Address         string
	Port            int
	GoodForDaySweep int // seconds between GoodForDay sweeps
}

// ParseServerConfig parses os.Args-style flags into a ServerConfig.
func ParseServerConfig(args []string) (ServerConfig, error) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	address := fs.String("address", "0.0.0.0", "address to listen on")
	port := fs.Int("port", 9001, "port to listen on")
	sweep := fs.Int("good-for-day-sweep-seconds", 86400, "interval between good-for-day sweeps, in seconds")

	if err := fs.Parse(args); err != nil {
		return ServerConfig{}, err
	}

	return ServerConfig{
		Address:         *address,
		Port:            *port,
		GoodForDaySweep: *sweep,
	}, nil
}
