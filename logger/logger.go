package logger

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"runtime"
	"strings"
	"sync"
	"time"
)

const (
	DEBUG = iota
	INFO
	WARN
	ERROR
)

func ParseLevel(level string) int {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return DEBUG
	}
}

var levelName = map[int]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

var (
	red    = []byte{27, 91, 51, 49, 109}
	green  = []byte{27, 91, 51, 50, 109}
	yellow = []byte{27, 91, 51, 51, 109}
	cyan   = []byte{27, 91, 51, 54, 109}
	reset  = []byte{27, 91, 48, 109}
)

var levelColor = map[int][]byte{
	DEBUG: cyan,
	INFO:  green,
	WARN:  yellow,
	ERROR: red,
}

type Config struct {
	AppName      string
	Level        int
	TrackLine    bool
	TrackThread  bool
	DisableColor bool
}

type Logger struct {
	mu     sync.Mutex
	config *Config
}

var logger *Logger = nil

func InitLogger(cfg *Config) {
	if cfg == nil {
		cfg = &Config{
			AppName:   "application",
			Level:     DEBUG,
			TrackLine: true,
		}
	}
	logger = &Logger{config: cfg}
}

func GetConfig() *Config {
	if logger == nil {
		return nil
	}
	return logger.config
}

func (l *Logger) write(level int, msg string) {
	if level < l.config.Level {
		return
	}
	var buf bytes.Buffer
	buf.WriteString(time.Now().Format("2006-01-02 15:04:05.000"))
	buf.WriteString(" [")
	buf.WriteString(l.config.AppName)
	buf.WriteString("] [")
	if !l.config.DisableColor {
		buf.Write(levelColor[level])
	}
	buf.WriteString(levelName[level])
	if !l.config.DisableColor {
		buf.Write(reset)
	}
	buf.WriteString("] ")
	if l.config.TrackThread {
		buf.WriteString("[tid:")
		buf.WriteString(getThreadId())
		buf.WriteString("] ")
	}
	if l.config.TrackLine {
		_, fileName, line, ok := runtime.Caller(3)
		if ok {
			buf.WriteString("[")
			buf.WriteString(path.Base(fileName))
			buf.WriteString(":")
			buf.WriteString(fmt.Sprintf("%d", line))
			buf.WriteString("] ")
		}
	}
	buf.WriteString(msg)
	if !strings.HasSuffix(msg, "\n") {
		buf.WriteString("\n")
	}
	l.mu.Lock()
	_, _ = os.Stdout.Write(buf.Bytes())
	l.mu.Unlock()
}

func log(level int, f string, a ...any) {
	if logger == nil {
		return
	}
	logger.write(level, fmt.Sprintf(f, a...))
}

func Debug(f string, a ...any) {
	log(DEBUG, f, a...)
}

func Info(f string, a ...any) {
	log(INFO, f, a...)
}

func Warn(f string, a ...any) {
	log(WARN, f, a...)
}

func Error(f string, a ...any) {
	log(ERROR, f, a...)
}

// LevelWriter adapts the logger to io.Writer so low-level packages that
// only know about a writer hook can log through it.
type LevelWriter struct {
	Level int
}

func (w LevelWriter) Write(p []byte) (int, error) {
	if logger != nil {
		logger.write(w.Level, string(bytes.TrimRight(p, "\n")))
	}
	return len(p), nil
}
