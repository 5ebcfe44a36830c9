package pdftext

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/sirupsen/logrus"
)

// Extractor pulls plain text out of PDF payloads on a best-effort basis.
// It never fails: unreadable documents and pages yield empty text.
type Extractor struct {
	log logrus.FieldLogger
}

func NewExtractor(logger logrus.FieldLogger) *Extractor {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Extractor{log: logger}
}

// Extract returns the text of every page joined by newlines, in page order.
// Pages without extractable text contribute an empty string.
func (e *Extractor) Extract(data []byte) string {
	if len(data) == 0 {
		return ""
	}

	pages, err := e.pages(data)
	if err != nil {
		e.logger().WithError(err).Warn("pdf text extraction failed, using empty text")
		return ""
	}
	return strings.Join(pages, "\n")
}

// ExtractReader reads r fully and extracts its text.
func (e *Extractor) ExtractReader(r io.Reader) string {
	if r == nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil {
		e.logger().WithError(err).Warn("pdf read failed, using empty text")
		return ""
	}
	return e.Extract(data)
}

func (e *Extractor) pages(data []byte) (out []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	rdr, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	n := rdr.NumPage()
	out = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, e.pageText(rdr, i))
	}
	return out, nil
}

func (e *Extractor) pageText(rdr *pdf.Reader, num int) (text string) {
	defer func() {
		if r := recover(); r != nil {
			e.logger().WithField("page", num).Debugf("pdf page extraction panic: %v", r)
			text = ""
		}
	}()

	page := rdr.Page(num)
	if page.V.IsNull() {
		return ""
	}
	txt, err := page.GetPlainText(nil)
	if err != nil {
		e.logger().WithField("page", num).WithError(err).Debug("pdf page has no extractable text")
		return ""
	}
	return strings.TrimSpace(txt)
}

func (e *Extractor) logger() logrus.FieldLogger {
	if e == nil || e.log == nil {
		return logrus.StandardLogger()
	}
	return e.log
}
