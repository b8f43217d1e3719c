package engine

import (
	"errors"
	"fmt"
)

var (
	ErrNoScene        = errors.New("no scene is active; start a new game first")
	ErrSessionEnded   = errors.New("session has ended")
	ErrSceneLoading   = errors.New("scene is still loading")
	ErrNotChoosing    = errors.New("no choice is pending")
	ErrUnknownChoice  = errors.New("choice is not available")
	ErrUnknownHotspot = errors.New("hotspot does not exist in this scene")
)

// UnknownSceneError is returned when a transition names a scene that is not
// in the catalog. The transition is aborted and the current scene retained.
type UnknownSceneError struct {
	SceneID string
}

func (e *UnknownSceneError) Error() string {
	return fmt.Sprintf("unknown scene %q", e.SceneID)
}

// IsUnknownScene reports whether err is or wraps an UnknownSceneError.
func IsUnknownScene(err error) bool {
	var use *UnknownSceneError
	return errors.As(err, &use)
}
