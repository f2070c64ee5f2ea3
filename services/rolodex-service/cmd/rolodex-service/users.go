package main

import (
	"log/slog"

	"github.com/md-rashed-zaman/rolodex/libs/auth"
)

func loadUsers(cfg Config, logger *slog.Logger) (*auth.UserStore, error) {
	if cfg.UsersFile != "" {
		return auth.LoadUsers(cfg.UsersFile)
	}
	logger.Warn("USERS_FILE not set, using development users")
	return auth.DevUsers()
}
