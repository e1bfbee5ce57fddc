// Useful routines used in several other packages.
package common

import (
	"os"
	"os/user"
	"path"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"moul.io/zapfilter"
)

// DefaultDataDir returns the data directory under the user's home.
func DefaultDataDir() (string, error) {
	u, err := user.Current()
	if err != nil {
		return "", err
	}
	return path.Join(u.HomeDir, ".etoken"), nil
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zap.DebugLevel
	case "ERROR":
		return zap.ErrorLevel
	case "WARN":
		return zap.WarnLevel
	case "FATAL":
		return zap.FatalLevel
	default:
		return zap.InfoLevel
	}
}

// SetupFilteredLogger installs a console logger as the global zap logger. It keeps only the entries
// matching the zapfilter rules, for example "debug:gateway,asset info:*". Empty rules keep everything.
func SetupFilteredLogger(level, rules string) (*zap.Logger, error) {
	al := zap.NewAtomicLevelAt(parseLevel(level))
	ec := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.Lock(os.Stdout), al)
	var err error
	if rules != "" {
		var filter zapfilter.FilterFunc
		filter, err = zapfilter.ParseRules(rules)
		if err == nil {
			core = zapfilter.NewFilteringCore(core, filter)
		} else {
			err = errors.Wrapf(err, "invalid log filter %q", rules)
		}
	}
	logger := zap.New(core)
	zap.ReplaceGlobals(logger)
	return logger, err
}

// ParseDuration parses strings like "3d12h30m" and returns the number of seconds.
func ParseDuration(str string) (uint64, error) {
	if str == "" {
		return 0, errors.New("empty string")
	}
	total := uint64(0)
	cur := uint64(0)
	expectNum := true
	for _, v := range str {
		switch v {
		case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
			expectNum = false
			cur = cur*10 + uint64(v-'0')
		case 'd', 'h', 'm':
			if expectNum {
				return 0, errors.Errorf("invalid char %c, expected 0 <= value <= 9", v)
			}
			expectNum = true
			switch v {
			case 'd':
				total += cur * 86400
			case 'h':
				total += cur * 3600
			case 'm':
				total += cur * 60
			}
			cur = 0
		default:
			return 0, errors.Errorf("invalid char '%c'", v)
		}
	}
	if !expectNum {
		return 0, errors.Errorf("invalid format")
	}
	return total, nil
}
