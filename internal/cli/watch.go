package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

// wireEnvelope mirrors the server's message frame
type wireEnvelope struct {
	Type string `json:"type"`
	Data string `json:"data"`
	ID   int    `json:"id"`
}

type regPayload struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

func newWatchCmd() *cobra.Command {
	var (
		name     string
		password string
		count    int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream game protocol events from the websocket",
		Long: `Connect to the server's game socket and print every event it pushes.

Events include:
  - reg: registration acknowledgement (with --name)
  - update_room: open rooms changed
  - update_winners: winners table changed

Every connection receives room and winner broadcasts. Registering with
--name also binds the connection to that player.

Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watch(ctx, cmd, name, password, count)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Register as this player after connecting")
	cmd.Flags().StringVar(&password, "password", "", "Password for --name")
	cmd.Flags().IntVar(&count, "count", 0, "Exit after this many events (0 streams until interrupted)")

	return cmd
}

func watch(ctx context.Context, cmd *cobra.Command, name, password string, count int) error {
	wsURL, err := cfg.WebSocketURL()
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	out := NewOutput(cfg.Output, cmd.OutOrStdout())
	if cfg.Verbose {
		out.PrintMessage("Connected to " + wsURL)
	}

	if name != "" {
		data, err := json.Marshal(regPayload{Name: name, Password: password})
		if err != nil {
			return fmt.Errorf("failed to marshal reg: %w", err)
		}
		if err := conn.WriteJSON(wireEnvelope{Type: "reg", Data: string(data)}); err != nil {
			return fmt.Errorf("failed to register: %w", err)
		}
	}

	// Unblock the read loop on interrupt
	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	for received := 0; count == 0 || received < count; received++ {
		var env wireEnvelope
		if err := conn.ReadJSON(&env); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				if cfg.Verbose {
					out.PrintMessage("Disconnected")
				}
				return nil
			}
			var syntaxErr *json.SyntaxError
			if errors.As(err, &syntaxErr) {
				return fmt.Errorf("malformed event: %w", err)
			}
			return fmt.Errorf("stream error: %w", err)
		}
		out.Print(toEvent(env))
	}
	return nil
}

func toEvent(env wireEnvelope) Event {
	data := json.RawMessage(env.Data)
	if !json.Valid(data) {
		quoted, _ := json.Marshal(env.Data)
		data = quoted
	}
	return Event{Time: time.Now(), Type: env.Type, Data: data}
}
