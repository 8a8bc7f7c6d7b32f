// Package notify defines the sink the reconciler reports through. The
// reconciler owns no presentation logic; a sink implementation decides how
// messages actually reach the user.
package notify

import "log/slog"

// Indicator is a live loading indicator handle.
type Indicator interface {
	// Update replaces the indicator's message.
	Update(msg string)

	// Dismiss tears the indicator down, optionally with a final message.
	Dismiss(success bool, finalMsg string)
}

// Sink receives user-facing status from the reconciler.
type Sink interface {
	// ShowError reports a terminal failure with up to two actionable
	// suggestions.
	ShowError(userMessage string, suggestions []string)

	// ShowSuccess reports a completed operation.
	ShowSuccess(message string)

	// ShowLoadingIndicator starts a loading indicator.
	ShowLoadingIndicator(label string) Indicator
}

// LogSink routes notifications to a slog.Logger. It is the default sink for
// the headless service.
type LogSink struct {
	Log *slog.Logger
}

func NewLogSink(log *slog.Logger) *LogSink {
	if log == nil {
		log = slog.Default()
	}
	return &LogSink{Log: log}
}

func (s *LogSink) ShowError(userMessage string, suggestions []string) {
	s.Log.Error(userMessage, "suggestions", suggestions)
}

func (s *LogSink) ShowSuccess(message string) {
	s.Log.Info(message)
}

func (s *LogSink) ShowLoadingIndicator(label string) Indicator {
	s.Log.Info(label)
	return &logIndicator{log: s.Log, label: label}
}

type logIndicator struct {
	log   *slog.Logger
	label string
}

func (i *logIndicator) Update(msg string) {
	i.log.Debug(msg, "indicator", i.label)
}

func (i *logIndicator) Dismiss(success bool, finalMsg string) {
	if finalMsg == "" {
		return
	}
	if success {
		i.log.Info(finalMsg, "indicator", i.label)
	} else {
		i.log.Warn(finalMsg, "indicator", i.label)
	}
}

// NopSink discards everything. One-shot commands that render their own
// output use it instead of a logging sink.
type NopSink struct{}

func (NopSink) ShowError(string, []string)            {}
func (NopSink) ShowSuccess(string)                    {}
func (NopSink) ShowLoadingIndicator(string) Indicator { return nopIndicator{} }

type nopIndicator struct{}

func (nopIndicator) Update(string)        {}
func (nopIndicator) Dismiss(bool, string) {}
