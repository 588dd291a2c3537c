package svgmin

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// settle gives editors that save through rename-and-write time to finish
const settle = 20 * time.Millisecond

// NewFileEvent feeds a watched .svg file into the session.
// event: create, write, modify, remove, delete, rename
func (s *Session) NewFileEvent(filePath, event string) error {
	var e = "NewFileEvent " + event + " "
	if filePath == "" {
		return errors.New(e + "filePath is empty")
	}
	if !strings.EqualFold(filepath.Ext(filePath), ".svg") {
		return errors.New(e + "not an svg file: " + filePath)
	}

	s.log.Info("file event", "event", event, "path", filePath)

	switch event {
	case "remove", "delete":
		s.Clear()
		return nil
	case "rename":
		// the create event for the new name carries the content
		return nil
	case "create", "write", "modify":
	default:
		return errors.New(e + "unknown event")
	}

	time.Sleep(settle)

	info, err := os.Stat(filePath)
	if err != nil {
		return errors.New(e + err.Error())
	}
	if info.Size() > MaxFileSize {
		return errors.New(e + "file exceeds the 5 MiB limit: " + filePath)
	}
	content, err := os.ReadFile(filePath)
	if err != nil {
		return errors.New(e + err.Error())
	}

	s.SetInput(string(content))
	return nil
}
