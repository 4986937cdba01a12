package auth

import "context"

// Notification carries an OTP value to be delivered out-of-band. The
// transport (email, SMS) lives outside this module.
type Notification struct {
	Email    string
	OtpValue string
	OtpType  OtpType
}

// Notifier is the delivery boundary for OTP notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n Notification) error

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, n Notification) error {
	if f == nil {
		return nil
	}
	return f(ctx, n)
}

// logNotifier records the code so an operator can hand-deliver it while
// a real transport is being wired up.
type logNotifier struct {
	logger Logger
}

func (l logNotifier) Notify(_ context.Context, n Notification) error {
	l.logger.Info("OTP notification for %s type %s value %s", n.Email, n.OtpType, n.OtpValue)
	return nil
}

func normalizeNotifier(n Notifier, logger Logger) Notifier {
	if n == nil {
		return logNotifier{logger: normalizeLogger(logger)}
	}
	return n
}
