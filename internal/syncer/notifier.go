package syncer

import "log/slog"

// Notice kinds, mirroring the toast kinds of the surrounding view layer.
const (
	NoticeSuccess = "success"
	NoticeError   = "error"
	NoticeWarning = "warning"
)

// Notice is a user-visible message. How it is rendered is the view layer's
// concern; the synchronizer only emits them.
type Notice struct {
	Kind    string
	Message string
}

// Notifier surfaces notices to the user.
type Notifier interface {
	Notify(Notice)
}

// LogNotifier writes notices to the structured log. It is the default when no
// view layer is attached.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n *LogNotifier) Notify(notice Notice) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	switch notice.Kind {
	case NoticeError:
		logger.Error(notice.Message, "notice", notice.Kind)
	case NoticeWarning:
		logger.Warn(notice.Message, "notice", notice.Kind)
	default:
		logger.Info(notice.Message, "notice", notice.Kind)
	}
}
