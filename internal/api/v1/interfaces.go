package v1

import (
	"context"

	"github.com/stacklok/posting-sync/internal/notification"
	"github.com/stacklok/posting-sync/internal/push"
	"github.com/stacklok/posting-sync/internal/status"
	pkgsync "github.com/stacklok/posting-sync/internal/sync"
)

//go:generate mockgen -destination=mocks/mock_interfaces.go -package=mocks -source=interfaces.go StatusReader,SyncTrigger,NotificationReader,SubscriberRegistry

// StatusReader lists the per-keyword sync status
type StatusReader interface {
	ListSyncStatuses(ctx context.Context) ([]*status.KeywordSyncStatus, error)
}

// SyncTrigger starts sync cycles on demand
type SyncTrigger interface {
	TriggerNow() error
	Running() bool
	LastCycle() (pkgsync.CycleResult, bool)
}

// NotificationReader reads persisted notifications
type NotificationReader interface {
	ListForRecipient(ctx context.Context, recipientID string, limit int) ([]notification.Notification, error)
}

// SubscriberRegistry owns the open push channels
type SubscriberRegistry interface {
	Connect(ctx context.Context, subscriberID string, ch push.Channel)
	Disconnect(ctx context.Context, subscriberID string, ch push.Channel) bool
}
