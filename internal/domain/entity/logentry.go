package entity

// LogEntry is an SDK log record mirrored onto the log stream when debug
// mode is enabled, so host applications can surface SDK activity in their
// own tooling.
type LogEntry struct {
	Level           string `json:"level"`
	Tag             string `json:"tag"`
	Message         string `json:"message"`
	TimestampMillis int64  `json:"timestamp_millis"`
}
