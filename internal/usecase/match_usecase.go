package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"resume-match/internal/config"
	"resume-match/internal/domain/match"
	"resume-match/internal/domain/matching"
	"resume-match/internal/infrastructure/rasterizer"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

var (
	ErrValidation             = errors.New("validation failed")
	ErrResumeRequired         = fmt.Errorf("%w: resume file is required", ErrValidation)
	ErrResumeNotPDF           = fmt.Errorf("%w: resume must be a PDF file", ErrValidation)
	ErrResumeTooLarge         = fmt.Errorf("%w: resume file is too large", ErrValidation)
	ErrJobDescriptionRequired = fmt.Errorf("%w: job description is required", ErrValidation)
	ErrMatchNotFound          = errors.New("match record not found")
)

type FileStorage interface {
	Put(ctx context.Context, name string, r io.Reader) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

type TextExtractor interface {
	Extract(data []byte) string
}

type PageRenderer interface {
	Render(ctx context.Context, name string, pdf []byte) []rasterizer.Image
}

type MatchCache interface {
	GetLatest(ctx context.Context, ownerID uuid.UUID) (match.Record, bool, error)
	SetLatest(ctx context.Context, rec match.Record) error
	InvalidateLatest(ctx context.Context, ownerID uuid.UUID) error
}

// MatchNotifier receives completed records. Implementations must not block for long
// and report their own failures.
type MatchNotifier interface {
	NotifyMatchCompleted(ctx context.Context, rec match.Record)
}

type SubmitInput struct {
	OwnerID        uuid.UUID
	Filename       string
	Size           int64
	Content        io.Reader
	JobDescription string
}

type SubmitResult struct {
	Record  match.Record
	Missing []string
	Images  []rasterizer.Image
}

type MatchUsecase interface {
	Submit(ctx context.Context, in SubmitInput) (SubmitResult, error)
	Latest(ctx context.Context, ownerID uuid.UUID) (match.Record, bool, error)
	History(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]match.Record, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (match.Record, error)
	Preview(ctx context.Context, ownerID, id uuid.UUID) ([]rasterizer.Image, error)
}

type MatchDeps struct {
	Records   match.Repository
	Storage   FileStorage
	Extractor TextExtractor
	Renderer  PageRenderer
	Cache     MatchCache
	Notifiers []MatchNotifier
	Logger    logrus.FieldLogger
	Now       func() time.Time
	Config    config.MatchConfig
	NewID     func() uuid.UUID
}

type Match struct {
	records   match.Repository
	storage   FileStorage
	extractor TextExtractor
	renderer  PageRenderer
	cache     MatchCache
	notifiers []MatchNotifier
	log       logrus.FieldLogger
	now       func() time.Time
	newID     func() uuid.UUID
	cfg       config.MatchConfig
}

func NewMatchUsecase(d MatchDeps) *Match {
	m := &Match{
		records:   d.Records,
		storage:   d.Storage,
		extractor: d.Extractor,
		renderer:  d.Renderer,
		cache:     d.Cache,
		log:       d.Logger,
		now:       d.Now,
		newID:     d.NewID,
		cfg:       d.Config,
	}
	for _, n := range d.Notifiers {
		if n != nil {
			m.notifiers = append(m.notifiers, n)
		}
	}
	if m.log == nil {
		m.log = logrus.StandardLogger()
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.newID == nil {
		m.newID = uuid.New
	}
	if m.cfg.MaxUploadBytes <= 0 {
		m.cfg.MaxUploadBytes = 8 << 20
	}
	return m
}

func (m *Match) Submit(ctx context.Context, in SubmitInput) (SubmitResult, error) {
	lg := m.log.WithFields(logrus.Fields{"owner_id": in.OwnerID.String(), "filename": in.Filename})
	lg.WithField("stage", "received").Debug("match submission received")

	payload, err := m.validate(in)
	if err != nil {
		lg.WithField("stage", "rejected").WithError(err).Info("match submission rejected")
		return SubmitResult{}, err
	}

	id := m.newID()
	ref, err := m.storage.Put(ctx, "resumes/"+id.String()+".pdf", bytes.NewReader(payload))
	if err != nil {
		lg.WithError(err).Error("resume storage failed")
		return SubmitResult{}, ErrInternal
	}
	lg = lg.WithFields(logrus.Fields{"match_id": id.String(), "resume_ref": ref})
	lg.WithField("stage", "stored").Debug("resume stored")

	stored := m.readBack(ctx, ref, lg)
	text := m.extractor.Extract(stored)
	lg.WithFields(logrus.Fields{"stage": "extracted", "chars": len(text)}).Debug("resume text extracted")

	jd := strings.TrimSpace(in.JobDescription)
	score := matching.Score(text, jd)
	missing := matching.MissingKeywords(matching.Tokenize(jd), matching.Tokenize(text))
	lg.WithFields(logrus.Fields{"stage": "scored", "score": score, "missing": len(missing)}).Debug("resume scored")

	rec := match.Record{
		ID:             id,
		OwnerID:        in.OwnerID,
		ResumeRef:      ref,
		JobDescription: jd,
		MatchScore:     &score,
		Suggestions:    matching.Suggestions(missing),
		CreatedAt:      m.now().UTC(),
	}
	if err := m.records.Create(ctx, rec); err != nil {
		lg.WithError(err).Error("match record insert failed")
		return SubmitResult{}, ErrInternal
	}
	lg.WithFields(logrus.Fields{"stage": "persisted", "score": score}).Info("match completed")

	m.afterCompletion(ctx, rec, lg)

	res := SubmitResult{Record: rec, Missing: missing, Images: []rasterizer.Image{}}
	if m.cfg.RenderPreviewOnSubmit && m.renderer != nil {
		if len(stored) == 0 {
			stored = payload
		}
		res.Images = m.renderer.Render(ctx, id.String(), stored)
	}
	return res, nil
}

// validate checks the submission and reads the upload, bounded by MaxUploadBytes.
func (m *Match) validate(in SubmitInput) ([]byte, error) {
	if in.OwnerID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	if in.Content == nil || strings.TrimSpace(in.Filename) == "" {
		return nil, ErrResumeRequired
	}
	if !strings.EqualFold(filepath.Ext(strings.TrimSpace(in.Filename)), ".pdf") {
		return nil, ErrResumeNotPDF
	}
	if in.Size > m.cfg.MaxUploadBytes {
		return nil, ErrResumeTooLarge
	}
	if strings.TrimSpace(in.JobDescription) == "" {
		return nil, ErrJobDescriptionRequired
	}

	payload, err := io.ReadAll(io.LimitReader(in.Content, m.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, ErrResumeRequired
	}
	if int64(len(payload)) > m.cfg.MaxUploadBytes {
		return nil, ErrResumeTooLarge
	}
	if len(payload) == 0 {
		return nil, ErrResumeRequired
	}
	return payload, nil
}

func (m *Match) readBack(ctx context.Context, ref string, lg logrus.FieldLogger) []byte {
	rc, err := m.storage.Open(ctx, ref)
	if err != nil {
		lg.WithError(err).Warn("stored resume unreadable, using empty text")
		return nil
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		lg.WithError(err).Warn("stored resume unreadable, using empty text")
		return nil
	}
	return data
}

func (m *Match) afterCompletion(ctx context.Context, rec match.Record, lg logrus.FieldLogger) {
	if m.cache != nil {
		if err := m.cache.InvalidateLatest(ctx, rec.OwnerID); err != nil {
			lg.WithError(err).Warn("latest match cache invalidation failed")
		}
	}
	for _, n := range m.notifiers {
		n.NotifyMatchCompleted(ctx, rec)
	}
}

func (m *Match) Latest(ctx context.Context, ownerID uuid.UUID) (match.Record, bool, error) {
	if ownerID == uuid.Nil {
		return match.Record{}, false, ErrUnauthorized
	}

	if m.cache != nil {
		rec, ok, err := m.cache.GetLatest(ctx, ownerID)
		if err == nil && ok && rec.OwnerID == ownerID {
			return rec, true, nil
		}
	}

	rec, err := m.records.LatestByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, match.ErrNotFound) {
			return match.Record{}, false, nil
		}
		m.log.WithError(err).WithField("owner_id", ownerID.String()).Error("latest match lookup failed")
		return match.Record{}, false, ErrInternal
	}

	if m.cache != nil {
		_ = m.cache.SetLatest(ctx, rec)
	}
	return rec, true, nil
}

func (m *Match) History(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]match.Record, error) {
	if ownerID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	out, err := m.records.ListByOwner(ctx, ownerID, limit, offset)
	if err != nil {
		m.log.WithError(err).WithField("owner_id", ownerID.String()).Error("match history lookup failed")
		return nil, ErrInternal
	}
	if out == nil {
		out = []match.Record{}
	}
	return out, nil
}

func (m *Match) Get(ctx context.Context, ownerID, id uuid.UUID) (match.Record, error) {
	if ownerID == uuid.Nil {
		return match.Record{}, ErrUnauthorized
	}
	rec, err := m.records.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, match.ErrNotFound) {
			return match.Record{}, ErrMatchNotFound
		}
		m.log.WithError(err).WithField("match_id", id.String()).Error("match lookup failed")
		return match.Record{}, ErrInternal
	}
	if rec.OwnerID != ownerID {
		return match.Record{}, ErrMatchNotFound
	}
	return rec, nil
}

// Preview renders the stored resume of a record. Rendering problems yield an
// empty list; only lookup errors are returned.
func (m *Match) Preview(ctx context.Context, ownerID, id uuid.UUID) ([]rasterizer.Image, error) {
	rec, err := m.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if m.renderer == nil {
		return []rasterizer.Image{}, nil
	}

	lg := m.log.WithFields(logrus.Fields{"match_id": rec.ID.String(), "resume_ref": rec.ResumeRef})
	data := m.readBack(ctx, rec.ResumeRef, lg)
	if len(data) == 0 {
		return []rasterizer.Image{}, nil
	}
	return m.renderer.Render(ctx, rec.ID.String(), data), nil
}
