package log

// Helper wraps a Logger with printf-style convenience methods, the shape
// every call site in this module uses (helper.Warnf("...: %v", err)).
type Helper struct {
	logger Logger
}

// NewHelper returns a Helper bound to logger.
func NewHelper(logger Logger) *Helper {
	return &Helper{logger: logger}
}

// Debug logs at LevelDebug.
func (h *Helper) Debug(a ...interface{}) {
	_ = h.logger.Log(LevelDebug, msgKey, fmtMessage(a...))
}

// Debugf logs at LevelDebug with a format string.
func (h *Helper) Debugf(format string, a ...interface{}) {
	_ = h.logger.Log(LevelDebug, msgKey, fmtMessagef(format, a...))
}

// Info logs at LevelInfo.
func (h *Helper) Info(a ...interface{}) {
	_ = h.logger.Log(LevelInfo, msgKey, fmtMessage(a...))
}

// Infof logs at LevelInfo with a format string.
func (h *Helper) Infof(format string, a ...interface{}) {
	_ = h.logger.Log(LevelInfo, msgKey, fmtMessagef(format, a...))
}

// Warn logs at LevelWarn.
func (h *Helper) Warn(a ...interface{}) {
	_ = h.logger.Log(LevelWarn, msgKey, fmtMessage(a...))
}

// Warnf logs at LevelWarn with a format string.
func (h *Helper) Warnf(format string, a ...interface{}) {
	_ = h.logger.Log(LevelWarn, msgKey, fmtMessagef(format, a...))
}

// Error logs at LevelError.
func (h *Helper) Error(a ...interface{}) {
	_ = h.logger.Log(LevelError, msgKey, fmtMessage(a...))
}

// Errorf logs at LevelError with a format string.
func (h *Helper) Errorf(format string, a ...interface{}) {
	_ = h.logger.Log(LevelError, msgKey, fmtMessagef(format, a...))
}
