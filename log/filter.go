package log

// FilterOption configures a Filter.
type FilterOption func(*filterLogger)

// FilterLevel drops any log call below the given level.
func FilterLevel(level Level) FilterOption {
	return func(f *filterLogger) {
		f.level = level
	}
}

type filterLogger struct {
	logger Logger
	level  Level
}

// NewFilter wraps logger so that only records at or above the configured
// level (LevelDebug by default, i.e. everything) reach it.
func NewFilter(logger Logger, opts ...FilterOption) Logger {
	f := &filterLogger{logger: logger, level: LevelDebug}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *filterLogger) Log(level Level, keyvals ...interface{}) error {
	if level < f.level {
		return nil
	}
	bindValues(keyvals)
	return f.logger.Log(level, keyvals...)
}
