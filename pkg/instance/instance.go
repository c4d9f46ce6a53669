package instance

import "os"

// GetID returns the bot run instance identifier or a default value.
func GetID() string {
	if id := os.Getenv("BAGELBOT_RUN_ID"); id != "" {
		return id
	}
	return "bagelbot-0"
}
