// Viewer is a read-only inspector for the relay's message store.
// Usage: viewer <conversation-id>
package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"market-chat/repositories"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
)

type Config struct {
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
}

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("Usage: %s <conversation-id>", os.Args[0])
	}
	conversationID := os.Args[1]

	// 1. Load config
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// 2. Open Badger in Read-Only mode
	// Note: BypassLockGuard allows opening if the relay process holds the lock
	opts := badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// 3. Read and render the conversation history
	repository := repositories.NewMessageRepository(db, slog.Default())
	messages, err := repository.GetMessages(conversationID)
	if err != nil {
		log.Fatalf("Failed to read messages: %v", err)
	}

	color.Cyan.Printf("Conversation %s: %d message(s)\n", conversationID, len(messages))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"At", "Sender", "Lang", "Content"})
	for _, m := range messages {
		table.Append([]string{
			m.CreatedAt.Format("2006-01-02 15:04:05"),
			m.SenderID,
			m.Lang,
			m.Content,
		})
	}
	table.Render()

	if len(messages) == 0 {
		fmt.Println("No messages stored for this conversation.")
	}
}
