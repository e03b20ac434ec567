package persistence

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKinds(Te *testing.T) {
	err := Errorf(ErrDegenerateBond, "inner", "bond %d has zero length", 3)
	if !errors.Is(err, ErrDegenerateBond) || errors.Is(err, ErrNoData) {
		Te.Errorf("wrong kind for %v", err)
	}
	if err.Critical() {
		Te.Error("Errorf errors are not critical")
	}
	if !err.SetCritical(true).Critical() {
		Te.Error("SetCritical did not work")
	}
	wrapped := fmt.Errorf("frame 2: %w", err)
	DecorateError(wrapped, "outer")
	if err.Trail() != "inner < outer" {
		Te.Errorf("unexpected trail %q", err.Trail())
	}
	if err.Error() != "persistence: degenerate bond vector: bond 3 has zero length" {
		Te.Errorf("unexpected message %q", err.Error())
	}
	plain := errors.New("plain")
	if DecorateError(plain, "outer") != plain {
		Te.Error("DecorateError should return non-module errors unchanged")
	}
	if DecorateError(nil, "outer") != nil {
		Te.Error("DecorateError(nil) should be nil")
	}
}

func TestLastFrame(Te *testing.T) {
	err := NewLastFrameError("reader")
	if !IsLastFrame(err) || !IsLastFrame(fmt.Errorf("wrapped: %w", err)) {
		Te.Error("last frame errors not recognized")
	}
	if IsLastFrame(NewError(ErrInput, "", true)) || IsLastFrame(nil) {
		Te.Error("other errors taken as last frame")
	}
}

func TestCopyError(Te *testing.T) {
	err := NewError(ErrNoData, "", true, "inner")
	c := CopyError(err)
	DecorateError(c, "outer")
	if err.Trail() != "inner" {
		Te.Errorf("the original changed: %q", err.Trail())
	}
	if c.(*Error).Trail() != "inner < outer" || !errors.Is(c, ErrNoData) || !c.(*Error).Critical() {
		Te.Errorf("bad copy %v (%q)", c, c.(*Error).Trail())
	}
	plain := errors.New("plain")
	if CopyError(plain) != plain || CopyError(nil) != nil {
		Te.Error("CopyError should return other errors unchanged")
	}
}
