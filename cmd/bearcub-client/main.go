// Command bearcub-client issues a single request against a bearcub-server
// and prints its response: write the outbound request, then run the
// symmetric pump client-side to receive the (possibly multi-frame) reply.
package main

import (
	"fmt"
	"net"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/machinefabric/bearcub/message"
	"github.com/machinefabric/bearcub/server"
)

const defaultAddr = "127.0.0.1:9444"

func main() {
	var addr string

	root := &cobra.Command{
		Use:   "bearcub-client",
		Short: "Issue a single request against a bearcub-server",
	}
	root.PersistentFlags().StringVar(&addr, "addr", defaultAddr, "server address")

	root.AddCommand(putCmd(&addr), getCmd(&addr), setCmd(&addr), listCmd(&addr), removeCmd(&addr))

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func putCmd(addr *string) *cobra.Command {
	var userID, id, parent, data string

	cmd := &cobra.Command{
		Use:   "put",
		Short: "Put a new blob under a parent node (or root)",
		Run: func(cmd *cobra.Command, args []string) {
			if id == "" {
				id = uuid.NewString()
			}
			req := message.NewPut(userID, id, parent, parent != "", []byte(data))
			runRequest(*addr, req)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "tenant user id (36-byte UUID)")
	cmd.Flags().StringVar(&id, "id", "", "blob id (generated if omitted)")
	cmd.Flags().StringVar(&parent, "parent", "", "parent node id (root if omitted)")
	cmd.Flags().StringVar(&data, "data", "", "JSON body, must contain a top-level \"title\" string")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("data")
	return cmd
}

func getCmd(addr *string) *cobra.Command {
	var userID, id, path string

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get a blob by id or title-prefix path",
		Run: func(cmd *cobra.Command, args []string) {
			var req message.Request
			if id != "" {
				req = message.NewGetByID(userID, id)
			} else {
				req = message.NewGetByPath(userID, path)
			}
			runRequest(*addr, req)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "tenant user id")
	cmd.Flags().StringVar(&id, "id", "", "blob id")
	cmd.Flags().StringVar(&path, "path", "", "colon-separated title-prefix path")
	cmd.MarkFlagRequired("user")
	return cmd
}

func setCmd(addr *string) *cobra.Command {
	var userID, id, data string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Rewrite an existing blob's body and title",
		Run: func(cmd *cobra.Command, args []string) {
			req := message.NewSet(userID, id, []byte(data))
			runRequest(*addr, req)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "tenant user id")
	cmd.Flags().StringVar(&id, "id", "", "blob id")
	cmd.Flags().StringVar(&data, "data", "", "JSON body, must contain a top-level \"title\" string")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("id")
	cmd.MarkFlagRequired("data")
	return cmd
}

func listCmd(addr *string) *cobra.Command {
	var userID, startAt string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the skeleton tree as JSON, optionally rooted at an id",
		Run: func(cmd *cobra.Command, args []string) {
			req := message.NewList(userID, startAt, startAt != "")
			runRequest(*addr, req)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "tenant user id")
	cmd.Flags().StringVar(&startAt, "start-at", "", "node id to root the listing at (default: root)")
	cmd.MarkFlagRequired("user")
	return cmd
}

func removeCmd(addr *string) *cobra.Command {
	var userID, id string

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a blob (not implemented server-side; expect InvalidMessage)",
		Run: func(cmd *cobra.Command, args []string) {
			req := message.NewRemove(userID, id)
			runRequest(*addr, req)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "tenant user id")
	cmd.Flags().StringVar(&id, "id", "", "blob id")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("id")
	return cmd
}

// runRequest dials addr, sends req, waits for the single reply, prints it,
// and disconnects.
func runRequest(addr string, req message.Request) {
	rawConn, err := net.Dial("tcp", addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[client] dial %s: %v\n", addr, err)
		os.Exit(1)
	}
	conn := server.New(rawConn)
	defer conn.Close()

	frames, err := req.ToFrames()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[client] framing request: %v\n", err)
		os.Exit(1)
	}
	for _, f := range frames {
		if err := conn.WriteFrame(f); err != nil {
			fmt.Fprintf(os.Stderr, "[client] writing request: %v\n", err)
			os.Exit(1)
		}
	}

	handler := func(in server.Envelope) *server.Envelope {
		printResponse(*in.Response)
		return nil // one round trip is enough; disconnect after the reply.
	}

	if err := server.Pump(conn, true, handler); err != nil {
		fmt.Fprintf(os.Stderr, "[client] %v\n", err)
		os.Exit(1)
	}
}

func printResponse(resp message.Response) {
	switch resp.Kind {
	case message.ResponseKindData:
		fmt.Println(string(resp.Data))
	case message.ResponseKindError:
		fmt.Fprintf(os.Stderr, "error %d: %s\n", resp.Code, resp.Description)
		os.Exit(1)
	}
}
