// Copyright 2024 The slimchain-go Authors
// This file is part of the slimchain-go library.
//
// The slimchain-go library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The slimchain-go library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the slimchain-go library. If not, see <http://www.gnu.org/licenses/>.

// Package log provides the module logger used throughout the node. Every
// package grabs its own named logger with NewModuleLogger, the same pattern
// the teacher uses (log.NewModuleLogger(log.StorageDatabase)) so log lines
// can be filtered by subsystem.
package log

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	base     *zap.SugaredLogger
	baseOnce sync.Once
)

func root() *zap.SugaredLogger {
	baseOnce.Do(func() {
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "ts"
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(os.Stderr), zap.NewAtomicLevelAt(zapcore.DebugLevel))
		base = zap.New(core).Sugar()
	})
	return base
}

// Logger wraps a zap.SugaredLogger behind the ctx-pair calling convention
// (msg string, keyvals ...interface{}) the node's code is written against.
type Logger struct {
	module string
	s      *zap.SugaredLogger
}

// NewModuleLogger returns the named logger for a subsystem, e.g.
// log.NewModuleLogger("accessmap").
func NewModuleLogger(module string) *Logger {
	return &Logger{module: module, s: root().With("module", module)}
}

func (l *Logger) Trace(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l *Logger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l *Logger) Info(msg string, kv ...interface{})  { l.s.Infow(msg, kv...) }
func (l *Logger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
func (l *Logger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l *Logger) Crit(msg string, kv ...interface{})  { l.s.Fatalw(msg, kv...) }

// Sync flushes any buffered log lines; call on shutdown.
func Sync() {
	if base != nil {
		_ = base.Sync()
	}
}
