package handler

import (
	"playchat/internal/app/auth"
	"playchat/internal/app/chat"
	"playchat/internal/configs"
)

// AppDeps holds everything the HTTP layer needs.
type AppDeps struct {
	Hub    *chat.Hub
	Auth   *auth.Authenticator
	Config *configs.AppConfig
}
