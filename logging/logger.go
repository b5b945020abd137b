// Package logging - 서버, 실행기, CLI가 함께 쓰는 zap 로거 생성
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options - 로거 설정
type Options struct {
	Level      string // "debug" | "info" | "warn" | "error"
	File       string // 비어 있으면 stdout만 사용
	MaxSizeMB  int
	MaxBackups int
}

// NewEncoderConfig - 콘솔 인코더 설정 (ISO8601 시간, 대문자 레벨)
func NewEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// ParseLevel - 문자열 레벨 변환 (알 수 없으면 info)
func ParseLevel(level string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		return zapcore.InfoLevel
	}
	return l
}

// New - stdout (+ 선택적 회전 파일) 로거 생성
func New(name string, opts Options) *zap.SugaredLogger {
	level := zap.NewAtomicLevelAt(ParseLevel(opts.Level))
	encoder := zapcore.NewConsoleEncoder(NewEncoderConfig())

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level),
	}
	if opts.File != "" {
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 100
		}
		maxBackups := opts.MaxBackups
		if maxBackups <= 0 {
			maxBackups = 3
		}
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
			Compress:   true,
		}
		fileEncoder := zapcore.NewJSONEncoder(NewEncoderConfig())
		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(rotator), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()).Named(name).Sugar()
}

// NewNop - 아무것도 출력하지 않는 로거
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
