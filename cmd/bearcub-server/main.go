// Command bearcub-server accepts TCP connections and runs one message pump
// per socket against a shared tenant registry.
package main

import (
	"fmt"
	"net"
	"os"

	"github.com/spf13/cobra"

	"github.com/machinefabric/bearcub/server"
	"github.com/machinefabric/bearcub/tenant"
)

const (
	defaultAddr    = "127.0.0.1:9444"
	defaultDataDir = "./data"
)

func main() {
	var addr, dataDir string

	cmd := &cobra.Command{
		Use:   "bearcub-server",
		Short: "Serve the bearcub tenant blob protocol over TCP",
		Run: func(cmd *cobra.Command, args []string) {
			if err := run(addr, dataDir); err != nil {
				fmt.Fprintf(os.Stderr, "[server] %v\n", err)
				os.Exit(1)
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "bind address")
	cmd.Flags().StringVar(&dataDir, "data-dir", defaultDataDir, "root directory for per-tenant storage")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(addr, dataDir string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	defer ln.Close()

	registry := tenant.NewRegistry(dataDir)
	fmt.Fprintf(os.Stderr, "[server] listening on %s, data-dir %s\n", addr, dataDir)

	for {
		conn, err := ln.Accept()
		if err != nil {
			return fmt.Errorf("accept: %w", err)
		}
		go serveConn(conn, registry)
	}
}

func serveConn(rawConn net.Conn, registry *tenant.Registry) {
	conn := server.New(rawConn)
	defer conn.Close()

	handler := func(in server.Envelope) *server.Envelope {
		// Pump guarantees this is a Request on the server side; see
		// server.Pump's validateOutbound/parseInbound split.
		resp := registry.Handle(*in.Request)
		out := server.ResponseEnvelope(resp)
		return &out
	}

	if err := server.Pump(conn, false, handler); err != nil {
		fmt.Fprintf(os.Stderr, "[server] connection %s ended: %v\n", rawConn.RemoteAddr(), err)
	}
}
