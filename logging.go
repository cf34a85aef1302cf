package authstate

import (
	"context"
	"fmt"
	"os"
)

// Logger is the structured logging contract used across the package.
// Arguments follow the key/value convention ("error", err).
type Logger interface {
	Trace(message string, args ...any)
	Debug(message string, args ...any)
	Info(message string, args ...any)
	Warn(message string, args ...any)
	Error(message string, args ...any)
	Fatal(message string, args ...any)
	WithContext(ctx context.Context) Logger
}

// LoggerProvider resolves named, scoped loggers ("authstate.enricher").
type LoggerProvider interface {
	GetLogger(name string) Logger
}

// LoggerProviderFunc adapts a function to the LoggerProvider interface.
type LoggerProviderFunc func(name string) Logger

func (f LoggerProviderFunc) GetLogger(name string) Logger {
	if f == nil {
		return nil
	}
	return f(name)
}

// ProviderFromLogger wraps a single logger as a provider that resolves the
// same logger for every name.
func ProviderFromLogger(logger Logger) LoggerProvider {
	return LoggerProviderFunc(func(string) Logger {
		return logger
	})
}

// ResolveLogger resolves the logger a component should use. Preference
// order: the provider's scoped logger, then the fallback logger, then the
// package default. The returned provider always resolves non-nil loggers.
func ResolveLogger(name string, provider LoggerProvider, fallback Logger) (LoggerProvider, Logger) {
	if fallback == nil {
		fallback = defaultLogger()
	}

	if provider == nil {
		provider = ProviderFromLogger(fallback)
		return provider, fallback
	}

	logger := provider.GetLogger(name)
	if logger == nil {
		logger = fallback
	}

	return &fallbackProvider{provider: provider, fallback: logger}, logger
}

type fallbackProvider struct {
	provider LoggerProvider
	fallback Logger
}

func (p *fallbackProvider) GetLogger(name string) Logger {
	if logger := p.provider.GetLogger(name); logger != nil {
		return logger
	}
	return p.fallback
}

// LegacyLogger is the printf-style contract older components expose.
type LegacyLogger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// FormattedLogger is the Xf-suffixed printf contract.
type FormattedLogger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// FromLegacyLogger adapts a LegacyLogger to the Logger contract. Messages
// and arguments are forwarded verbatim. A nil logger yields a no-op.
func FromLegacyLogger(legacy LegacyLogger) Logger {
	if legacy == nil {
		return noopLogger{}
	}
	return legacyAdapter{legacy: legacy}
}

type legacyAdapter struct {
	legacy LegacyLogger
}

func (a legacyAdapter) Trace(message string, args ...any) { a.legacy.Debug(message, args...) }
func (a legacyAdapter) Debug(message string, args ...any) { a.legacy.Debug(message, args...) }
func (a legacyAdapter) Info(message string, args ...any)  { a.legacy.Info(message, args...) }
func (a legacyAdapter) Warn(message string, args ...any)  { a.legacy.Warn(message, args...) }
func (a legacyAdapter) Error(message string, args ...any) { a.legacy.Error(message, args...) }
func (a legacyAdapter) Fatal(message string, args ...any) { a.legacy.Error(message, args...) }
func (a legacyAdapter) WithContext(context.Context) Logger {
	return a
}

// FromFormattedLogger adapts a FormattedLogger to the Logger contract.
func FromFormattedLogger(formatted FormattedLogger) Logger {
	if formatted == nil {
		return noopLogger{}
	}
	return formattedAdapter{formatted: formatted}
}

type formattedAdapter struct {
	formatted FormattedLogger
}

func (a formattedAdapter) Trace(message string, args ...any) { a.formatted.Debugf(message, args...) }
func (a formattedAdapter) Debug(message string, args ...any) { a.formatted.Debugf(message, args...) }
func (a formattedAdapter) Info(message string, args ...any)  { a.formatted.Infof(message, args...) }
func (a formattedAdapter) Warn(message string, args ...any)  { a.formatted.Warnf(message, args...) }
func (a formattedAdapter) Error(message string, args ...any) { a.formatted.Errorf(message, args...) }
func (a formattedAdapter) Fatal(message string, args ...any) { a.formatted.Errorf(message, args...) }
func (a formattedAdapter) WithContext(context.Context) Logger {
	return a
}

// ToFormattedLogger exposes a Logger through the FormattedLogger contract,
// rendering the format string before forwarding.
func ToFormattedLogger(logger Logger) FormattedLogger {
	if logger == nil {
		logger = defaultLogger()
	}
	return formattedView{logger: logger}
}

type formattedView struct {
	logger Logger
}

func (v formattedView) Debugf(format string, args ...any) {
	v.logger.Debug(fmt.Sprintf(format, args...))
}

func (v formattedView) Infof(format string, args ...any) {
	v.logger.Info(fmt.Sprintf(format, args...))
}

func (v formattedView) Warnf(format string, args ...any) {
	v.logger.Warn(fmt.Sprintf(format, args...))
}

func (v formattedView) Errorf(format string, args ...any) {
	v.logger.Error(fmt.Sprintf(format, args...))
}

type noopLogger struct{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}
func (noopLogger) WithContext(context.Context) Logger {
	return noopLogger{}
}

// defaultLogger returns the stderr logger used when nothing is injected.
// Fatal logs at the fatal level without exiting; lifecycle decisions stay
// with the host application.
func defaultLogger() Logger {
	return stdLogger{}
}

type stdLogger struct{}

func (l stdLogger) log(level, message string, args ...any) {
	line := "[" + level + "] AUTHSTATE " + message
	for i := 0; i+1 < len(args); i += 2 {
		line += fmt.Sprintf(" %v=%v", args[i], args[i+1])
	}
	if len(args)%2 == 1 {
		line += fmt.Sprintf(" %v", args[len(args)-1])
	}
	fmt.Fprintln(os.Stderr, line)
}

func (l stdLogger) Trace(message string, args ...any) { l.log("TRC", message, args...) }
func (l stdLogger) Debug(message string, args ...any) { l.log("DBG", message, args...) }
func (l stdLogger) Info(message string, args ...any)  { l.log("INF", message, args...) }
func (l stdLogger) Warn(message string, args ...any)  { l.log("WRN", message, args...) }
func (l stdLogger) Error(message string, args ...any) { l.log("ERR", message, args...) }
func (l stdLogger) Fatal(message string, args ...any) { l.log("FTL", message, args...) }
func (l stdLogger) WithContext(context.Context) Logger {
	return l
}
