package upload

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/herbcatalog/internal/models"
)

func newTestStore(t *testing.T) (*Store, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	s, err := NewStore(fs, "/srv/uploads", nil)
	require.NoError(t, err)
	return s, fs
}

func TestStore_RoundTrip(t *testing.T) {
	s, fs := newTestStore(t)
	content := []byte("\x89PNG fake image bytes")

	name, err := s.Store(bytes.NewReader(content), "x.png")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}\.png$`), name)

	got, err := afero.ReadFile(fs, filepath.Join("/srv/uploads", name))
	require.NoError(t, err)
	assert.Equal(t, content, got)

	f, err := s.Open(name)
	require.NoError(t, err)
	defer f.Close()
	viaOpen, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, content, viaOpen)
}

func TestStore_ExtensionHandling(t *testing.T) {
	s, _ := newTestStore(t)

	tests := []struct {
		declared string
		wantExt  string
		wantErr  bool
	}{
		{declared: "photo.JPG", wantExt: ".jpg"},
		{declared: "photo.jpeg", wantExt: ".jpeg"},
		{declared: "../../etc/passwd.png", wantExt: ".png"},
		{declared: `C:\pics\leaf.PNG`, wantExt: ".png"},
		{declared: "malware.exe", wantErr: true},
		{declared: "noext", wantErr: true},
		{declared: "archive.png.gz", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.declared, func(t *testing.T) {
			name, err := s.Store(bytes.NewReader([]byte("data")), tt.declared)
			if tt.wantErr {
				assert.ErrorIs(t, err, models.ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantExt, filepath.Ext(name))
			// the declared name never leaks into the stored one
			assert.NotContains(t, name, "passwd")
			assert.NotContains(t, name, "leaf")
		})
	}
}

func TestStore_RejectedFormatWritesNothing(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Store(bytes.NewReader([]byte("MZ")), "malware.exe")
	require.ErrorIs(t, err, models.ErrUnsupportedFormat)

	files, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, files)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestStore_PartialWriteLeavesNothing(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Store(io.MultiReader(bytes.NewReader([]byte("half")), failingReader{}), "a.png")
	require.ErrorIs(t, err, models.ErrStorage)

	files, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestStore_UniqueNames(t *testing.T) {
	s, _ := newTestStore(t)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		name, err := s.Store(bytes.NewReader(nil), "same.png")
		require.NoError(t, err)
		assert.False(t, seen[name], "duplicate stored name %s", name)
		seen[name] = true
	}
}

func TestStore_Remove(t *testing.T) {
	s, _ := newTestStore(t)

	name, err := s.Store(bytes.NewReader([]byte("img")), "a.jpg")
	require.NoError(t, err)

	removed, err := s.Remove(name)
	require.NoError(t, err)
	assert.True(t, removed)

	// second removal and never-stored names are not errors
	removed, err = s.Remove(name)
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = s.Remove("never-stored.png")
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = s.Remove("../outside.png")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestStore_OpenMissing(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Open("missing.png")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = s.Open("../secret")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStore_OpenHidesTempFiles(t *testing.T) {
	s, fs := newTestStore(t)

	tmp, err := afero.TempFile(fs, "/srv/uploads", tempPattern)
	require.NoError(t, err)
	_, err = tmp.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, tmp.Close())
	name := filepath.Base(tmp.Name())

	_, err = s.Open(name)
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, afero.WriteFile(fs, "/srv/uploads/.hidden.png", []byte("x"), 0o644))
	_, err = s.Open(".hidden.png")
	assert.ErrorIs(t, err, models.ErrNotFound)

	removed, err := s.Remove(name)
	require.NoError(t, err)
	assert.True(t, removed, "temp files stay removable for the reclaimer")
}

func TestStore_List(t *testing.T) {
	s, fs := newTestStore(t)
	require.NoError(t, fs.MkdirAll("/srv/uploads/nested", 0o755))

	a, err := s.Store(bytes.NewReader([]byte("a")), "a.jpg")
	require.NoError(t, err)
	b, err := s.Store(bytes.NewReader([]byte("bb")), "b.png")
	require.NoError(t, err)

	files, err := s.List()
	require.NoError(t, err)

	names := map[string]int64{}
	for _, f := range files {
		names[f.Name] = f.Size
	}
	assert.Equal(t, map[string]int64{a: 1, b: 2}, names)
}

func TestNewStore_CustomExtensions(t *testing.T) {
	s, err := NewStore(afero.NewMemMapFs(), "up", []string{"WEBP", ".Gif"})
	require.NoError(t, err)

	_, err = s.CheckExtension("x.webp")
	assert.NoError(t, err)
	_, err = s.CheckExtension("x.GIF")
	assert.NoError(t, err)
	_, err = s.CheckExtension("x.png")
	assert.ErrorIs(t, err, models.ErrUnsupportedFormat)
	assert.Equal(t, "up", s.Root())
}
