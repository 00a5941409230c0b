package logger_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"nes-core/logger"
)

func TestLogger(t *testing.T) {
	logger.Clear()
	defer logger.Clear()

	tw := &strings.Builder{}
	logger.Write(tw)
	assert.Equal(t, "", tw.String())

	logger.Log("test", "this is a test")
	logger.Write(tw)
	assert.Equal(t, "test: this is a test\n", tw.String())

	tw.Reset()
	logger.Logf("test2", "this is test number %d", 2)
	logger.Write(tw)
	assert.Equal(t, "test: this is a test\ntest2: this is test number 2\n", tw.String())

	// asking for too many entries in a Tail() should be okay
	tw.Reset()
	logger.Tail(tw, 100)
	assert.Equal(t, "test: this is a test\ntest2: this is test number 2\n", tw.String())

	tw.Reset()
	logger.Tail(tw, 1)
	assert.Equal(t, "test2: this is test number 2\n", tw.String())

	tw.Reset()
	logger.Tail(tw, 0)
	assert.Equal(t, "", tw.String())
}

func TestLoggerRepeats(t *testing.T) {
	logger.Clear()
	defer logger.Clear()

	echo := &strings.Builder{}
	logger.SetEcho(echo)
	defer logger.SetEcho(nil)

	logger.Log("cpu", "halted")
	logger.Log("cpu", "halted")
	logger.Log("cpu", "halted\n")

	tw := &strings.Builder{}
	logger.Write(tw)
	assert.Equal(t, "cpu: halted (repeat x3)\n", tw.String())
	assert.Equal(t, "cpu: halted\n", echo.String())
}

func TestLoggerLimit(t *testing.T) {
	logger.Clear()
	defer logger.Clear()

	for i := 0; i < 300; i++ {
		logger.Logf("n", "%d", i)
	}
	tw := &strings.Builder{}
	logger.Tail(tw, 1)
	assert.Equal(t, "n: 299\n", tw.String())

	tw.Reset()
	logger.Write(tw)
	assert.Equal(t, 256, strings.Count(tw.String(), "\n"))
	assert.True(t, strings.HasPrefix(tw.String(), "n: 44\n"))
}
