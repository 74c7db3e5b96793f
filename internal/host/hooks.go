package host

import (
	"context"

	"github.com/soyeahso/imbridge/internal/domain"
	"github.com/soyeahso/imbridge/internal/hooks"
)

// HookNotifier turns notifications into hook events. Handlers run
// asynchronously so a slow hook command never stalls the event pump.
type HookNotifier struct {
	ctx   context.Context
	hooks *hooks.Manager
}

// NewHookNotifier emits into m. Handlers get ctx's values but not its
// cancellation, so session_end still runs after a shutdown signal; each
// hook command is bounded by its own timeout.
func NewHookNotifier(ctx context.Context, m *hooks.Manager) *HookNotifier {
	return &HookNotifier{ctx: context.WithoutCancel(ctx), hooks: m}
}

var _ domain.Notifier = (*HookNotifier)(nil)

func (h *HookNotifier) emit(event string, ic *domain.ConnectionContext, data map[string]any) {
	h.hooks.EmitAsync(h.ctx, hooks.Payload{Event: event, Account: ic.AccountID, Data: data})
}

func (h *HookNotifier) Error(ic *domain.ConnectionContext, reason string) {
	h.emit(hooks.EventBridgeError, ic, map[string]any{"reason": reason})
}

func (h *HookNotifier) Disconnected(ic *domain.ConnectionContext, allowReconnect bool) {
	h.emit(hooks.EventSessionEnd, ic, map[string]any{"allowReconnect": allowReconnect})
}

func (h *HookNotifier) Connected(ic *domain.ConnectionContext) {
	h.emit(hooks.EventSessionStart, ic, nil)
}

func (h *HookNotifier) BuddyAdded(ic *domain.ConnectionContext, name, group string) {
	h.emit(hooks.EventBuddyAdded, ic, map[string]any{"name": name, "group": group})
}

func (h *HookNotifier) BuddyRemoved(ic *domain.ConnectionContext, name, group string) {
	h.emit(hooks.EventBuddyRemoved, ic, map[string]any{"name": name, "group": group})
}

func (h *HookNotifier) MessageReceived(ic *domain.ConnectionContext, name, message string) {
	h.emit(hooks.EventMessageReceived, ic, map[string]any{"from": name, "body": message})
}
