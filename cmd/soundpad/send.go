package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/soundpad/internal/trigger"
)

var sendOpts struct {
	host string
	port uint16
}

var sendCmd = &cobra.Command{
	Use:   "send <n>",
	Short: "Send a remote trigger datagram",
	Long: `Send sound number n to a soundpad trigger listener.

The datagram is the decimal number as ASCII. Delivery is not confirmed: UDP
gives no acknowledgement and the listener drops numbers that do not match a
sound.`,
	Args: cobra.ExactArgs(1),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVar(&sendOpts.host, "host", "127.0.0.1",
		"Listener host")
	sendCmd.Flags().Uint16Var(&sendOpts.port, "port", 0,
		"Listener port (default: [socket] port from settings)")
}

func runSend(cmd *cobra.Command, args []string) error {
	n, err := trigger.ParseDatagram([]byte(args[0]))
	if err != nil {
		return fmt.Errorf("invalid sound number %q", args[0])
	}

	port := sendOpts.port
	if port == 0 {
		port = settingsStore.SocketPort()
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	if err := trigger.Send(ctx, sendOpts.host, port, n); err != nil {
		return err
	}
	logger.Debug("trigger sent", "host", sendOpts.host, "port", port, "trigger", n)
	return nil
}
