package httpapi

import (
	"net/http"

	"github.com/Maristella28/Bms-1125-sub002/internal/domain"
	"github.com/Maristella28/Bms-1125-sub002/internal/notify"
)

// NotificationFeed latest polled feed
type NotificationFeed interface {
	Latest() []domain.Notification
	Unread() int
}

// NoticeLog recently raised console notices
type NoticeLog interface {
	Notices() []notify.Notice
}

// NotificationHandler read-only view of the polled feed and recent notices
type NotificationHandler struct {
	feed    NotificationFeed
	notices NoticeLog
}

func NewNotificationHandler(feed NotificationFeed, notices NoticeLog) *NotificationHandler {
	return &NotificationHandler{feed: feed, notices: notices}
}

func (h *NotificationHandler) Feed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"notifications": h.feed.Latest(),
		"unread":        h.feed.Unread(),
	}))
}

func (h *NotificationHandler) Notices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, Ok(h.notices.Notices()))
}
