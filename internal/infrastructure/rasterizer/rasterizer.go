// Package rasterizer renders resume pages to PNG images with Poppler.
package rasterizer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"resume-match/internal/config"

	"github.com/sirupsen/logrus"
)

type Image struct {
	Page int    `json:"page"`
	Path string `json:"-"`
	URL  string `json:"url"`
}

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, bin string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, bin string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, bin, args...).CombinedOutput()
}

type Poppler struct {
	bin       string
	outDir    string
	publicURL string
	dpi       int
	first     int
	last      int
	timeout   time.Duration

	run Runner
	log logrus.FieldLogger
}

type Option func(*Poppler)

func WithRunner(r Runner) Option {
	return func(p *Poppler) {
		if r != nil {
			p.run = r
		}
	}
}

func New(cfg config.RasterizerConfig, bin string, logger logrus.FieldLogger, opts ...Option) *Poppler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	p := &Poppler{
		bin:       strings.TrimSpace(bin),
		outDir:    strings.TrimSpace(cfg.OutputDir),
		publicURL: strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/"),
		dpi:       cfg.DPI,
		first:     cfg.FirstPage,
		last:      cfg.LastPage,
		timeout:   cfg.Timeout,
		run:       execRunner,
		log:       logger,
	}
	if p.dpi <= 0 {
		p.dpi = 100
	}
	if p.first <= 0 {
		p.first = 1
	}
	if p.last < p.first {
		p.last = p.first
	}
	if p.timeout <= 0 {
		p.timeout = 30 * time.Second
	}
	if p.outDir == "" {
		p.outDir = os.TempDir()
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Enabled reports whether a renderer binary was resolved.
func (p *Poppler) Enabled() bool {
	return p != nil && p.bin != ""
}

func (p *Poppler) OutputDir() string { return p.outDir }

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Render writes the PDF to a temporary file and renders the configured page
// range into the output directory as <name>-<page>.png. Any failure yields an
// empty list.
func (p *Poppler) Render(ctx context.Context, name string, pdf []byte) []Image {
	if !p.Enabled() {
		p.log.Debug("rasterizer disabled, no renderer binary")
		return []Image{}
	}
	name = unsafeName.ReplaceAllString(strings.TrimSuffix(path.Base(name), path.Ext(name)), "_")
	if name == "" || name == "_" || len(pdf) == 0 {
		return []Image{}
	}
	lg := p.log.WithField("name", name)

	if err := os.MkdirAll(p.outDir, 0o755); err != nil {
		lg.WithError(err).Warn("rasterizer output dir unavailable")
		return []Image{}
	}

	tmp, err := os.CreateTemp("", "resume-*.pdf")
	if err != nil {
		lg.WithError(err).Warn("rasterizer temp file failed")
		return []Image{}
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(pdf); err != nil {
		_ = tmp.Close()
		lg.WithError(err).Warn("rasterizer temp write failed")
		return []Image{}
	}
	if err := tmp.Close(); err != nil {
		lg.WithError(err).Warn("rasterizer temp close failed")
		return []Image{}
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	args := []string{
		"-png",
		"-r", strconv.Itoa(p.dpi),
		"-f", strconv.Itoa(p.first),
		"-l", strconv.Itoa(p.last),
		tmp.Name(),
		filepath.Join(p.outDir, name),
	}
	if out, err := p.run(ctx, p.bin, args...); err != nil {
		lg.WithError(err).WithField("output", strings.TrimSpace(string(out))).Warn("pdftoppm failed")
		return []Image{}
	}

	images, err := p.collect(name)
	if err != nil {
		lg.WithError(err).Warn("rasterizer output scan failed")
		return []Image{}
	}
	if len(images) == 0 {
		lg.Warn("pdftoppm produced no images")
	}
	return images
}

// collect finds <name>-<page>.png files; pdftoppm zero-pads page numbers
// depending on the page count.
func (p *Poppler) collect(name string) ([]Image, error) {
	matches, err := filepath.Glob(filepath.Join(p.outDir, name+"-*.png"))
	if err != nil {
		return nil, err
	}

	images := make([]Image, 0, len(matches))
	for _, m := range matches {
		base := filepath.Base(m)
		num := strings.TrimSuffix(strings.TrimPrefix(base, name+"-"), ".png")
		page, err := strconv.Atoi(num)
		if err != nil {
			continue
		}
		images = append(images, Image{
			Page: page,
			Path: m,
			URL:  p.url(base),
		})
	}
	sort.Slice(images, func(i, j int) bool { return images[i].Page < images[j].Page })
	return images, nil
}

func (p *Poppler) url(file string) string {
	if p.publicURL == "" {
		return file
	}
	return fmt.Sprintf("%s/%s", p.publicURL, file)
}
