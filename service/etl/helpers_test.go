package etl

import (
	"io"
	"log/slog"
)

// testLogger 测试用静默日志器
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
