package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"vulture/internal/paths"
)

// FileName is the application log inside the cache directory.
const FileName = "vulture.log"

var Logger = logrus.New()

func init() {
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	Logger.SetLevel(logrus.InfoLevel)
}

// Setup applies level and directs output to dir/vulture.log. The terminal
// belongs to the CLI and TUI, so stderr is only used if the file cannot be
// opened. The returned closer releases the file.
func Setup(level, dir string) (io.Closer, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	Logger.SetLevel(lvl)

	path := filepath.Join(dir, FileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		Logger.SetOutput(os.Stderr)
		Logger.WithError(err).Warn("failed to open log file, logging to stderr")
		return io.NopCloser(nil), nil
	}
	paths.ChownToRealUser(path)
	Logger.SetOutput(f)
	return f, nil
}
