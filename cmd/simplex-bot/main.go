package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/simplexbot/simplexbot/pkg/client"
	"github.com/simplexbot/simplexbot/pkg/protocol"
)

func main() {
	serverAddr := flag.String("server", "localhost:5225", "SimpleX chat server address (e.g., localhost:5225)")
	timeout := flag.Duration("timeout", 10*time.Second, "Per-command response timeout")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	logger := zerolog.Nop()
	if *verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	c := client.New(*serverAddr,
		client.WithTimeout(*timeout),
		client.WithLogger(logger),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.Connect(ctx); err != nil {
		log.Fatalf("Failed to connect to %s: %v", *serverAddr, err)
	}
	defer c.Close()

	user, err := c.ShowActiveUser(ctx)
	if err != nil {
		log.Fatalf("Failed to query active user: %v", err)
	}
	log.Printf("Connected to %s as %s", *serverAddr, user.Profile.DisplayName)

	if err := c.StartChat(ctx); err != nil {
		log.Fatalf("Failed to start chat: %v", err)
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range c.Events() {
			handleEvent(c, ev)
		}
	}()

	sig := <-sigChan
	log.Printf("Received signal %v, shutting down...", sig)
	c.Close()
	<-done
	log.Println("Bot stopped")
}

// handleEvent echoes every incoming direct message back to its sender.
func handleEvent(c *client.Client, ev protocol.Response) {
	switch e := ev.(type) {
	case *protocol.CRContactConnected:
		log.Printf("Contact connected: %s", e.Contact.LocalDisplayName)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		greeting := fmt.Sprintf("Hello %s! I echo everything you send me.", e.Contact.LocalDisplayName)
		if _, err := c.SendTextMessage(ctx, protocol.ChatTypeDirect, e.Contact.ContactID, greeting); err != nil {
			log.Printf("Failed to greet %s: %v", e.Contact.LocalDisplayName, err)
		}
	case *protocol.CRNewChatItems:
		for _, item := range e.ChatItems {
			if item.ChatInfo.Type != "direct" || item.ChatInfo.Contact == nil {
				continue
			}
			text := item.ChatItem.Meta.ItemText
			if text == "" {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if _, err := c.SendTextMessage(ctx, protocol.ChatTypeDirect, item.ChatInfo.Contact.ContactID, text); err != nil {
				log.Printf("Failed to reply to %s: %v", item.ChatInfo.Contact.LocalDisplayName, err)
			}
			cancel()
		}
	case *protocol.CRChatError:
		log.Printf("Chat error: %s", e.ChatError.Type)
	}
}
