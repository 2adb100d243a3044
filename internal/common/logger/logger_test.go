package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("bogus"))
}

func TestZapAdapter_FieldsAndErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).WithFields(map[string]interface{}{"taskType": "notify-new-incident"})

	log.WithError(errors.New("boom")).Error("dispatch failed", map[string]interface{}{
		"incidentId": "abc123",
		"cause":      errors.New("deadline exceeded"),
	})

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, "notify-new-incident", ctx["taskType"])
		assert.Equal(t, "abc123", ctx["incidentId"])
		assert.Equal(t, "boom", ctx["error"])
		assert.Equal(t, "deadline exceeded", ctx["cause"])
	}
}

func TestRedactToken(t *testing.T) {
	assert.Equal(t, "***", RedactToken("short"))
	assert.Equal(t, "abcdefgh…", RedactToken("abcdefghijklmnopqrstuvwxyz"))
}

func TestNoOpLogger(t *testing.T) {
	log := NewNoOpLogger()
	log.Info("ignored", nil)
	log.With(map[string]interface{}{"k": "v"}).Warn("ignored", nil)
}

func TestTestLogger(t *testing.T) {
	log := NewTestLogger(t).WithFields(map[string]interface{}{"incidentId": "abc123"})
	log.Debug("resolved recipients", map[string]interface{}{"count": 2})
	log.WithError(errors.New("boom")).Warn("cleanup failed", nil)
}
