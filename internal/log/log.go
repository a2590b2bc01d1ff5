// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package log provides the process-wide zap logger.
package log

import (
	"fmt"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
)

// Until Init is called everything goes to a no-op logger, which keeps
// library tests quiet. store updates both pointers.
var (
	baseLogger atomic.Pointer[zap.Logger]
	sugared    atomic.Pointer[zap.SugaredLogger]
)

func init() {
	store(zap.NewNop())
}

func store(l *zap.Logger) {
	baseLogger.Store(l)
	sugared.Store(l.Sugar())
}

func sugar() *zap.SugaredLogger {
	return sugared.Load()
}

// Init initializes the package-level logger.
func Init(debug bool) error {
	var zapLogger *zap.Logger
	var err error

	if debug {
		zapLogger, err = zap.NewDevelopment(zap.AddCallerSkip(1))
	} else {
		zapLogger, err = zap.NewProduction(zap.AddCallerSkip(1))
	}
	if err != nil {
		return fmt.Errorf("can't initialize zap logger: %v", err)
	}

	store(zapLogger)
	return nil
}

// SetLogger replaces the package logger, mainly so tests can observe output.
// It is safe to call while other goroutines log.
func SetLogger(l *zap.Logger) {
	store(l.WithOptions(zap.AddCallerSkip(1)))
}

// GetZapLogger returns the base zap logger.
func GetZapLogger() *zap.Logger {
	return baseLogger.Load()
}

// Sync flushes any buffered log entries
func Sync() {
	_ = sugar().Sync()
}

func Debugf(template string, args ...interface{}) {
	sugar().Debugf(template, args...)
}

func Debugw(msg string, keysAndValues ...interface{}) {
	sugar().Debugw(msg, keysAndValues...)
}

func Info(args ...interface{}) {
	sugar().Info(args...)
}

func Infof(template string, args ...interface{}) {
	sugar().Infof(template, args...)
}

func Infow(msg string, keysAndValues ...interface{}) {
	sugar().Infow(msg, keysAndValues...)
}

func Warnf(template string, args ...interface{}) {
	sugar().Warnf(template, args...)
}

func Warnw(msg string, keysAndValues ...interface{}) {
	sugar().Warnw(msg, keysAndValues...)
}

func Errorf(template string, args ...interface{}) {
	sugar().Errorf(template, args...)
}

func Errorw(msg string, keysAndValues ...interface{}) {
	sugar().Errorw(msg, keysAndValues...)
}

func Fatalf(template string, args ...interface{}) {
	sugar().Fatalf(template, args...)
	os.Exit(1)
}
