package rasterizer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"resume-match/internal/config"
	"resume-match/internal/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(dir string) config.RasterizerConfig {
	return config.RasterizerConfig{
		OutputDir:     dir,
		PublicBaseURL: "/media/previews/",
		DPI:           100,
		FirstPage:     1,
		LastPage:      2,
		Timeout:       time.Second,
	}
}

// fakePdftoppm writes one PNG per requested page next to the output prefix.
func fakePdftoppm(pages ...string) Runner {
	return func(_ context.Context, _ string, args ...string) ([]byte, error) {
		prefix := args[len(args)-1]
		for _, p := range pages {
			if err := os.WriteFile(prefix+"-"+p+".png", []byte("png"), 0o644); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}
}

func TestRender_CollectsPagesInOrder(t *testing.T) {
	dir := t.TempDir()
	var gotArgs []string
	run := func(ctx context.Context, bin string, args ...string) ([]byte, error) {
		gotArgs = args
		return fakePdftoppm("10", "02", "01")(ctx, bin, args...)
	}
	p := New(testConfig(dir), "/usr/bin/pdftoppm", logging.Discard(), WithRunner(run))

	images := p.Render(context.Background(), "resumes/abc.pdf", []byte("%PDF-1.4"))

	require.Len(t, images, 3)
	assert.Equal(t, []int{1, 2, 10}, []int{images[0].Page, images[1].Page, images[2].Page})
	assert.Equal(t, "/media/previews/abc-01.png", images[0].URL)
	assert.Equal(t, filepath.Join(dir, "abc-01.png"), images[0].Path)

	require.Len(t, gotArgs, 9)
	assert.Equal(t, []string{"-png", "-r", "100", "-f", "1", "-l", "2"}, gotArgs[:7])
	assert.Equal(t, filepath.Join(dir, "abc"), gotArgs[8])
}

func TestRender_TempFileRemoved(t *testing.T) {
	var tmp string
	run := func(_ context.Context, _ string, args ...string) ([]byte, error) {
		tmp = args[len(args)-2]
		_, err := os.Stat(tmp)
		return nil, err
	}
	p := New(testConfig(t.TempDir()), "pdftoppm", logging.Discard(), WithRunner(run))
	_ = p.Render(context.Background(), "x.pdf", []byte("%PDF-1.4"))

	require.NotEmpty(t, tmp)
	_, err := os.Stat(tmp)
	assert.True(t, os.IsNotExist(err))
}

func TestRender_FailuresYieldEmptyList(t *testing.T) {
	ctx := context.Background()
	failing := func(context.Context, string, ...string) ([]byte, error) {
		return []byte("Syntax Error"), errors.New("exit status 1")
	}

	disabled := New(testConfig(t.TempDir()), "", logging.Discard())
	assert.False(t, disabled.Enabled())
	assert.Empty(t, disabled.Render(ctx, "a.pdf", []byte("%PDF")))

	broken := New(testConfig(t.TempDir()), "pdftoppm", logging.Discard(), WithRunner(failing))
	out := broken.Render(ctx, "a.pdf", []byte("%PDF"))
	assert.NotNil(t, out)
	assert.Empty(t, out)

	silent := New(testConfig(t.TempDir()), "pdftoppm", logging.Discard(), WithRunner(fakePdftoppm()))
	assert.Empty(t, silent.Render(ctx, "a.pdf", []byte("%PDF")))

	assert.Empty(t, silent.Render(ctx, "a.pdf", nil))
}

func TestResolveBinary_Order(t *testing.T) {
	env := func(v string) func(string) string {
		return func(k string) string {
			if k == "POPPLER_PATH" {
				return v
			}
			return ""
		}
	}
	found := func(string) (string, error) { return "/usr/bin/" + BinaryName(), nil }
	missing := func(string) (string, error) { return "", errors.New("not found") }

	assert.Equal(t, "/opt/custom/pdftoppm", ResolveBinary(" /opt/custom/pdftoppm ", env("/opt/poppler"), found))
	assert.Equal(t, filepath.Join("/opt/poppler", BinaryName()), ResolveBinary("", env("/opt/poppler"), found))
	assert.Equal(t, "/usr/bin/"+BinaryName(), ResolveBinary("", env(""), found))
	assert.Equal(t, "", ResolveBinary("", env(""), missing))
	assert.Equal(t, "", ResolveBinary("", nil, nil))
}
