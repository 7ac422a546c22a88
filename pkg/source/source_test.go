package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mchmarny/menugate/pkg/menu"
)

type loadCall struct {
	kind string
	err  error
}

type fakeObserver struct {
	calls []loadCall
}

func (o *fakeObserver) ObserveLoad(kind string, err error) {
	o.calls = append(o.calls, loadCall{kind: kind, err: err})
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, YAML, FormatFor("menu.yaml"))
	assert.Equal(t, YAML, FormatFor("/etc/MENU.YML"))
	assert.Equal(t, JSON, FormatFor("menu.json"))
	assert.Equal(t, JSON, FormatFor("/api/menus"))
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		format  Format
		title   string
		keys    []string
		wantErr error
	}{
		{name: "json list", in: `[{"key": "a"}, {"key": "b"}]`, format: JSON, keys: []string{"a", "b"}},
		{name: "json menu", in: `{"title": "Admin", "items": [{"key": "a"}]}`, format: JSON, title: "Admin", keys: []string{"a"}},
		{name: "json envelope", in: `{"success": true, "data": [{"key": "a"}]}`, format: JSON, keys: []string{"a"}},
		{name: "yaml list", in: "- key: a\n- key: b\n", format: YAML, keys: []string{"a", "b"}},
		{name: "yaml menu", in: "title: Admin\nitems:\n  - key: a\n", format: YAML, title: "Admin", keys: []string{"a"}},
		{name: "yaml envelope", in: "success: true\ndata:\n  - key: a\n", format: YAML, keys: []string{"a"}},
		{name: "unsuccessful envelope", in: `{"success": false, "message": "forbidden"}`, format: JSON, wantErr: ErrUnsuccessful},
		{name: "missing key", in: `[{"title": "no key"}]`, format: JSON, wantErr: menu.ErrMissingKey},
		{name: "duplicate key", in: "- key: a\n- key: a\n", format: YAML, wantErr: menu.ErrDuplicateKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Decode([]byte(tt.in), tt.format)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.title, m.Title)

			var got []string
			for _, n := range m.Items {
				got = append(got, n.Key)
			}
			assert.Equal(t, tt.keys, got)
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	for _, in := range []string{"", "   ", "{", "[1, 2]"} {
		_, err := Decode([]byte(in), JSON)
		assert.Error(t, err, "input %q", in)
	}

	_, err := Decode([]byte(""), YAML)
	assert.Error(t, err)

	_, err = Decode([]byte("key: [unclosed"), YAML)
	assert.Error(t, err)
}

func TestFile_LoadYAML(t *testing.T) {
	obs := &fakeObserver{}
	f := &File{Path: filepath.Join("testdata", "menu.yaml"), Observer: obs}

	m, err := f.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Admin", m.Title)
	assert.Equal(t, 7, menu.Count(m.Items))
	assert.Equal(t, "Dashboard", m.Items[0].Title)
	assert.Equal(t, menu.StatusInactive, m.Items[2].Children[3].Status)
	assert.Equal(t, []loadCall{{kind: "file"}}, obs.calls)

	resolved, err := m.Resolve("employee")
	require.NoError(t, err)
	require.Len(t, resolved.Items, 1)
	assert.Equal(t, "dashboard", resolved.Items[0].Key)

	require.NoError(t, f.Ready(context.Background()))
}

func TestFile_LoadEnvelope(t *testing.T) {
	m, err := (&File{Path: filepath.Join("testdata", "envelope.json")}).Load(context.Background())
	require.NoError(t, err)

	resolved, err := menu.Resolve(m.Items, "employee")
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	assert.Equal(t, "settings", resolved[1].Key)
	assert.Equal(t, "module", resolved[1].Children[0].Key)
}

func TestFile_Errors(t *testing.T) {
	obs := &fakeObserver{}
	missing := &File{Path: filepath.Join(t.TempDir(), "nope.json"), Observer: obs}

	_, err := missing.Load(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
	require.Len(t, obs.calls, 1)
	assert.Error(t, obs.calls[0].err)
	assert.Error(t, missing.Ready(context.Background()))

	_, err = (&File{Path: filepath.Join("testdata", "duplicate.yaml")}).Load(context.Background())
	assert.ErrorIs(t, err, menu.ErrDuplicateKey)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = (&File{Path: filepath.Join("testdata", "list.json")}).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew(t *testing.T) {
	src, err := New(Config{Location: "testdata/list.json"})
	require.NoError(t, err)
	assert.IsType(t, &File{}, src)

	src, err = New(Config{Location: "https://example.com/menus", Token: "t"})
	require.NoError(t, err)
	require.IsType(t, &HTTP{}, src)
	assert.Equal(t, "t", src.(*HTTP).Token)

	src, err = New(Config{Location: "testdata/list.json", TTL: time.Minute})
	require.NoError(t, err)
	assert.IsType(t, &Cached{}, src)

	_, err = New(Config{})
	assert.Error(t, err)
}

func TestDocumentMenu_UnsuccessfulWithoutMessage(t *testing.T) {
	f := false
	_, err := document{Success: &f}.menu()
	assert.True(t, errors.Is(err, ErrUnsuccessful))
}
