package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"tradocs/middleware"
	"tradocs/services/notification"
	"tradocs/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultNotificationLimit = 50
	streamHeartbeat          = 25 * time.Second
)

func notificationError(c *gin.Context, err error) {
	if errors.Is(err, notification.ErrNotFound) {
		utils.JSONError(c, http.StatusNotFound, err.Error(), "")
		return
	}
	internalError(c, "Notification request failed", err)
}

// ListNotificationsHandler handles GET /api/notifications?unread=true&limit=.
func (h *HandlerBundle) ListNotificationsHandler(c *gin.Context) {
	unreadOnly, _ := strconv.ParseBool(c.Query("unread"))
	items, err := h.Notifications.List(c.Request.Context(), middleware.CurrentUserID(c), unreadOnly, intQuery(c, "limit", defaultNotificationLimit))
	if err != nil {
		notificationError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *HandlerBundle) UnreadCountHandler(c *gin.Context) {
	n, err := h.Notifications.UnreadCount(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		notificationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

func (h *HandlerBundle) MarkNotificationReadHandler(c *gin.Context) {
	if err := h.Notifications.MarkRead(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id")); err != nil {
		notificationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Marked as read"})
}

func (h *HandlerBundle) MarkAllNotificationsReadHandler(c *gin.Context) {
	n, err := h.Notifications.MarkAllRead(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		notificationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

func (h *HandlerBundle) DeleteNotificationHandler(c *gin.Context) {
	if err := h.Notifications.Delete(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id")); err != nil {
		notificationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification deleted"})
}

// NotificationStreamHandler handles GET /api/notifications/stream as server-sent events.
// A "ready" event carries the unread count, then every new notification
// follows as a "notification" event until the client goes away.
func (h *HandlerBundle) NotificationStreamHandler(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.CurrentUserID(c)

	ch, cancel, err := h.Notifications.Subscribe(ctx, userID)
	if err != nil {
		utils.JSONError(c, http.StatusServiceUnavailable, "Realtime notifications unavailable", err.Error())
		return
	}
	defer cancel()

	unread, err := h.Notifications.UnreadCount(ctx, userID)
	if err != nil {
		utils.GetLogger().Warn("stream: failed to count unread", zap.String("userID", userID), zap.Error(err))
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("ready", gin.H{"unread": unread})
	c.Writer.Flush()

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case n, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("notification", n)
			return true
		case <-heartbeat.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
}
