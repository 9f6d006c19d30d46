// Copyright 2025 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

type LoggerInterface interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Debugf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Fatalf(template string, args ...interface{})
	Security() SecurityLoggerInterface
}

// SecurityLoggerInterface emits structured security events, kept separate from
// application logging so they can be routed to a dedicated sink.
type SecurityLoggerInterface interface {
	AuthnFailure(subject, reason string)
	AuthzFailure(subject, action string)
	SystemStartup()
	SystemShutdown()
}
