// Package logger is a small leveled logger shared by every dittofd package.
//
// Messages are printf-formatted and written one per line, either as
// "[timestamp] [LEVEL] message" text or as a JSON object when the format is
// set to "json".
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

const timestampLayout = "2006-01-02 15:04:05"

var (
	currentLevel atomic.Int32
	jsonFormat   atomic.Bool

	mu     sync.Mutex
	logger = stdlog.New(os.Stdout, "", 0)
)

func init() {
	currentLevel.Store(int32(LevelInfo))
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name, in any case, to a Level.
func ParseLevel(level string) (Level, error) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// SetLevel sets the minimum level that is written. Unknown names are ignored.
func SetLevel(level string) {
	if l, err := ParseLevel(level); err == nil {
		currentLevel.Store(int32(l))
	}
}

// GetLevel returns the current minimum level.
func GetLevel() Level {
	return Level(currentLevel.Load())
}

// SetFormat selects "text" or "json" output. Unknown names are ignored.
func SetFormat(format string) {
	switch strings.ToLower(format) {
	case "text":
		jsonFormat.Store(false)
	case "json":
		jsonFormat.Store(true)
	}
}

// SetOutput redirects log output to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger.SetOutput(w)
}

type jsonLine struct {
	Time    string `json:"time"`
	Level   string `json:"level"`
	Message string `json:"msg"`
}

func log(level Level, format string, v ...any) {
	if level < GetLevel() {
		return
	}

	timestamp := time.Now().Format(timestampLayout)
	message := fmt.Sprintf(format, v...)

	var line string
	if jsonFormat.Load() {
		b, err := json.Marshal(jsonLine{Time: timestamp, Level: level.String(), Message: message})
		if err != nil {
			return
		}
		line = string(b)
	} else {
		line = fmt.Sprintf("[%s] [%s] %s", timestamp, level.String(), message)
	}

	mu.Lock()
	defer mu.Unlock()
	logger.Println(line)
}

func Debug(format string, v ...any) {
	log(LevelDebug, format, v...)
}

func Info(format string, v ...any) {
	log(LevelInfo, format, v...)
}

func Warn(format string, v ...any) {
	log(LevelWarn, format, v...)
}

func Error(format string, v ...any) {
	log(LevelError, format, v...)
}
