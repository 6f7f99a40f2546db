package content

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateExclusiveRemovesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), SeedModuleID+".md")
	errDisk := errors.New("disk full")

	err := createExclusive(path, func(w io.Writer) error {
		_, _ = w.Write([]byte("---\ntitle: trunc"))
		return errDisk
	})
	require.ErrorIs(t, err, errDisk)
	_, err = os.Stat(path)
	require.ErrorIs(t, err, fs.ErrNotExist)

	require.NoError(t, createExclusive(path, func(w io.Writer) error {
		_, err := w.Write([]byte("ok"))
		return err
	}))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "ok", string(got))

	err = createExclusive(path, func(io.Writer) error { return nil })
	require.ErrorIs(t, err, fs.ErrExist)
}

func TestSeedAfterFailedWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, SeedModuleID+".md")
	_ = createExclusive(path, func(io.Writer) error { return errors.New("interrupted") })

	s := NewStore(dir, nil)
	c, err := s.seed()
	require.NoError(t, err)

	back, err := os.ReadFile(path)
	require.NoError(t, err)
	parsed, err := ParseCourse(SeedModuleID+".md", back)
	require.NoError(t, err)
	require.Equal(t, c.Title, parsed.Title)
}
