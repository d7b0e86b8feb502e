package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/wirehub/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:3001/ws", "WebSocket address")
	token := flag.String("token", "", "connection token (see `wirehub token`)")
	channel := flag.String("channel", "general", "channel to join")
	messageID := flag.String("message", "smoke-1", "message id to mark as read")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	if *token == "" {
		return fmt.Errorf("-token is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr+"?token="+*token, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(kind string, payload any) error {
		if err := wsjson.Write(ctx, conn, map[string]any{"type": kind, "payload": payload}); err != nil {
			return fmt.Errorf("send %s: %w", kind, err)
		}
		return nil
	}

	if err := send(proto.KindChannelJoin, map[string]string{"channelId": *channel}); err != nil {
		return err
	}
	if err := send(proto.KindTypingStart, map[string]string{"channelId": *channel}); err != nil {
		return err
	}
	if err := send(proto.KindReceiptRead, map[string]string{"channelId": *channel, "messageId": *messageID}); err != nil {
		return err
	}

	for {
		var env proto.Envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		fmt.Printf("Received: type=%s payload=%s\n", env.Type, string(env.Payload))

		if env.Type == proto.KindReceiptRead {
			return nil
		}
	}
}
