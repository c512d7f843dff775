package handler

import (
	"github.com/l1jgo/antilag/internal/antilag"
	"github.com/l1jgo/antilag/internal/core/event"
	"go.uber.org/zap"
)

// Sender 為下指令的一方。
type Sender interface {
	Name() string
	HasPermission(node string) bool
	SendMessage(msg string)
}

// Broadcaster 將訊息送給所有已連線的 session。
type Broadcaster interface {
	Broadcast(msg string)
}

// Deps holds shared dependencies injected into all command handlers.
type Deps struct {
	AntiLag   *antilag.Plugin
	Broadcast Broadcaster
	Bus       *event.Bus
	Log       *zap.Logger
}
