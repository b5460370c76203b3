package groups

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot/models"
)

// UpdatesFetcher retrieves pending bot updates without consuming them.
type UpdatesFetcher interface {
	GetUpdates(ctx context.Context) ([]models.Update, error)
}

// Watcher turns Telegram updates into group membership changes on the
// store.
type Watcher struct {
	store *Store
	log   *slog.Logger
}

// NewWatcher wires a watcher over a groups store.
func NewWatcher(store *Store, log *slog.Logger) *Watcher {
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{
		store: store,
		log:   log.With("component", "groups_watcher"),
	}
}

// HandleUpdate inspects one update for group signals: my_chat_member
// transitions mark the bot as added or removed, and plain group
// messages refresh activity.
func (w *Watcher) HandleUpdate(ctx context.Context, upd *models.Update) {
	if upd == nil {
		return
	}

	if mcm := upd.MyChatMember; mcm != nil && isGroupChat(mcm.Chat) {
		w.handleMembership(ctx, mcm)
		return
	}

	if msg := upd.Message; msg != nil && isGroupChat(msg.Chat) {
		if _, err := w.store.Record(msg.Chat.ID, msg.Chat.Title, string(msg.Chat.Type), EventMessageReceived); err != nil {
			w.log.ErrorContext(ctx, "Failed to record group activity",
				"chat_id", msg.Chat.ID, "error", err)
		}
	}
}

func (w *Watcher) handleMembership(ctx context.Context, mcm *models.ChatMemberUpdated) {
	wasIn := isMember(mcm.OldChatMember)
	isIn := isMember(mcm.NewChatMember)

	switch {
	case !wasIn && isIn:
		if _, err := w.store.Record(mcm.Chat.ID, mcm.Chat.Title, string(mcm.Chat.Type), EventBotAdded); err != nil {
			w.log.ErrorContext(ctx, "Failed to record group join",
				"chat_id", mcm.Chat.ID, "error", err)
		}
	case wasIn && !isIn:
		if err := w.store.MarkRemoved(mcm.Chat.ID, mcm.Chat.Title, string(mcm.Chat.Type)); err != nil {
			w.log.ErrorContext(ctx, "Failed to record group removal",
				"chat_id", mcm.Chat.ID, "error", err)
		}
	}
}

// StartupScan walks the pending update queue once to pick up groups the
// bot was added to while offline. The queue is read without an offset
// so the updates stay pending for the live handler.
func (w *Watcher) StartupScan(ctx context.Context, fetcher UpdatesFetcher) error {
	updates, err := fetcher.GetUpdates(ctx)
	if err != nil {
		return err
	}

	seen := map[int64]bool{}
	for i := range updates {
		upd := &updates[i]

		var chat *models.Chat
		switch {
		case upd.MyChatMember != nil:
			chat = &upd.MyChatMember.Chat
		case upd.Message != nil:
			chat = &upd.Message.Chat
		default:
			continue
		}
		if !isGroupChat(*chat) || seen[chat.ID] {
			continue
		}
		seen[chat.ID] = true

		if upd.MyChatMember != nil && !isMember(upd.MyChatMember.NewChatMember) {
			if err := w.store.MarkRemoved(chat.ID, chat.Title, string(chat.Type)); err != nil {
				w.log.ErrorContext(ctx, "Failed to record removal during scan",
					"chat_id", chat.ID, "error", err)
			}
			continue
		}
		if _, err := w.store.Record(chat.ID, chat.Title, string(chat.Type), EventStartupScan); err != nil {
			w.log.ErrorContext(ctx, "Failed to record group during scan",
				"chat_id", chat.ID, "error", err)
		}
	}

	w.log.InfoContext(ctx, "Startup scan finished",
		"updates", len(updates), "groups_seen", len(seen))
	return nil
}

func isGroupChat(chat models.Chat) bool {
	return chat.Type == models.ChatTypeGroup || chat.Type == models.ChatTypeSupergroup
}

// isMember reports whether a chat member state counts as being in the
// chat. Restricted members carry their own is_member flag; left and
// banned are out.
func isMember(member models.ChatMember) bool {
	switch member.Type {
	case models.ChatMemberTypeOwner,
		models.ChatMemberTypeAdministrator,
		models.ChatMemberTypeMember:
		return true
	case models.ChatMemberTypeRestricted:
		return member.Restricted != nil && member.Restricted.IsMember
	default:
		return false
	}
}
