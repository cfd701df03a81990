package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"chatdraft/backend/internal/config"
	"chatdraft/backend/internal/models"
	"chatdraft/backend/internal/storage"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const usage = `Usage: admin <command> [args]

Commands:
  migrate
  add-user <name> [alias,alias...] [external_id]
  add-channel <name> [description]
  join <channel_id> <user_id>
  unread <channel_id> <user_id>
  mark-read <channel_id> <user_id> <timetoken>`

func main() {
	cfg := config.Load()
	logger := cfg.Logger()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}

	storageSvc := storage.NewStorageService(db, nil, logger) // No redis needed for admin CLI

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	if err := run(storageSvc, os.Args[1], os.Args[2:]); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run(s *storage.Service, command string, args []string) error {
	switch command {
	case "migrate":
		if err := s.Migrate(); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Println("Migrations complete.")

	case "add-user":
		if len(args) < 1 {
			return fmt.Errorf("usage: admin add-user <name> [alias,alias...] [external_id]")
		}
		user := &models.User{Name: args[0]}
		if len(args) > 1 && args[1] != "" {
			user.Aliases = strings.Split(args[1], ",")
		}
		if len(args) > 2 && args[2] != "" {
			externalID := args[2]
			user.ExternalID = &externalID
		}
		if err := s.SaveUser(user); err != nil {
			return fmt.Errorf("error saving user: %w", err)
		}
		fmt.Printf("User %s created with ID %s.\n", user.Name, user.ID)

	case "add-channel":
		if len(args) < 1 {
			return fmt.Errorf("usage: admin add-channel <name> [description]")
		}
		channel := &models.Channel{Name: args[0], Type: "group"}
		if len(args) > 1 {
			channel.Description = args[1]
		}
		if err := s.SaveChannel(channel); err != nil {
			return fmt.Errorf("error saving channel: %w", err)
		}
		fmt.Printf("Channel %s created with ID %s.\n", channel.Name, channel.ID)

	case "join":
		if len(args) != 2 {
			return fmt.Errorf("usage: admin join <channel_id> <user_id>")
		}
		if err := s.JoinChannel(args[0], args[1]); err != nil {
			return fmt.Errorf("error joining channel: %w", err)
		}
		fmt.Printf("User %s joined channel %s.\n", args[1], args[0])

	case "unread":
		if len(args) != 2 {
			return fmt.Errorf("usage: admin unread <channel_id> <user_id>")
		}
		count, err := s.GetUnreadMessagesCount(args[0], args[1])
		if err != nil {
			return fmt.Errorf("error counting unread messages: %w", err)
		}
		if count == nil {
			fmt.Println("No messages marked as read yet.")
			return nil
		}
		fmt.Printf("%d unread messages.\n", *count)

	case "mark-read":
		if len(args) != 3 {
			return fmt.Errorf("usage: admin mark-read <channel_id> <user_id> <timetoken>")
		}
		timetoken, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid timetoken. Please provide an integer")
		}
		if err := s.MarkRead(args[0], args[1], timetoken); err != nil {
			return fmt.Errorf("error marking messages read: %w", err)
		}
		fmt.Printf("Channel %s read up to %d for user %s.\n", args[0], timetoken, args[1])

	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}
	return nil
}
