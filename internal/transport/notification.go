package transport

import (
	"net/http"

	"storefront-core/internal/apierr"
	"storefront-core/internal/logger"
	"storefront-core/internal/notification"
	"storefront-core/internal/utils"

	"go.uber.org/zap"
)

// warnNotConfirmed tells the client the change is only local until the
// next snapshot settles it.
const warnNotConfirmed = "change not confirmed by the server yet"

type feedResponse struct {
	Items       []notification.Notification `json:"items"`
	UnreadCount int                         `json:"unreadCount"`
	Warning     string                      `json:"warning,omitempty"`
}

// listNotifications serves the merged push and pull feed, newest first. The
// unread count is derived from the whole feed, not just the returned items.
func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	agg := SessionFrom(r.Context()).Notifications
	items := agg.Feed()
	unread := notification.UnreadCount(items)
	if limit := utils.QueryInt(r, "limit", 0); limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	if items == nil {
		items = []notification.Notification{}
	}
	utils.WriteJSON(w, http.StatusOK, feedResponse{Items: items, UnreadCount: unread})
}

func (h *Handler) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	agg := SessionFrom(r.Context()).Notifications
	writeMutation(w, r, "markNotificationRead", agg, agg.MarkAsRead(r.Context(), r.PathValue("id")))
}

func (h *Handler) markAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	agg := SessionFrom(r.Context()).Notifications
	writeMutation(w, r, "markAllNotificationsRead", agg, agg.MarkAllAsRead(r.Context()))
}

func (h *Handler) deleteNotification(w http.ResponseWriter, r *http.Request) {
	agg := SessionFrom(r.Context()).Notifications
	writeMutation(w, r, "deleteNotification", agg, agg.Delete(r.Context(), r.PathValue("id")))
}

func (h *Handler) deleteAllNotifications(w http.ResponseWriter, r *http.Request) {
	agg := SessionFrom(r.Context()).Notifications
	writeMutation(w, r, "deleteAllNotifications", agg, agg.DeleteAll(r.Context()))
}

// writeMutation answers a notification change with the feed. The change is
// already applied locally, so a server failure only adds a warning; the next
// snapshot settles it. An expired session is still refused.
func writeMutation(w http.ResponseWriter, r *http.Request, method string, agg *notification.Aggregator, err error) {
	if err == nil {
		writeFeed(w, agg, "")
		return
	}
	if apierr.KindOf(err) == apierr.KindUnauthenticated {
		writeErr(w, r, method, err)
		return
	}
	logger.FromCtx(r.Context()).Warn("notification change kept locally",
		zap.String("layer", "transport"),
		zap.String("method", method),
		zap.Error(err),
	)
	writeFeed(w, agg, warnNotConfirmed)
}

func writeFeed(w http.ResponseWriter, agg *notification.Aggregator, warning string) {
	items := agg.Feed()
	if items == nil {
		items = []notification.Notification{}
	}
	utils.WriteJSON(w, http.StatusOK, feedResponse{
		Items:       items,
		UnreadCount: notification.UnreadCount(items),
		Warning:     warning,
	})
}
