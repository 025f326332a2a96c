package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/mrops-br/hardware-storefront/internal/app/dto"
	"github.com/mrops-br/hardware-storefront/internal/blob"
	"github.com/mrops-br/hardware-storefront/internal/catalog"
	"github.com/mrops-br/hardware-storefront/internal/domain"
)

// EditSession is the transient state of one product editor: text fields,
// selected files and gallery removals. A result that arrives after the
// session was closed or reset is ignored.
type EditSession struct {
	mu sync.Mutex

	id  uuid.UUID
	gen uint64

	open       bool
	submitting bool

	editing     *domain.Product
	form        dto.ProductForm
	photo       blob.File
	existing    []blob.Blob
	removed     map[int]bool
	newGallery  []blob.File
	progress    int
	lastMessage string
}

// NewSession opens an editor for a new product.
func NewSession() *EditSession {
	return &EditSession{
		id:      uuid.New(),
		open:    true,
		removed: make(map[int]bool),
	}
}

// BeginEdit opens an editor prefilled from p.
func BeginEdit(p *domain.Product) *EditSession {
	s := NewSession()
	if p == nil {
		return s
	}
	s.editing = p.Clone()
	s.form = dto.FormFromProduct(p)
	s.existing = append([]blob.Blob(nil), p.Gallery...)
	return s
}

func (s *EditSession) ID() uuid.UUID { return s.id }

// Editing returns the product being edited, nil in create mode.
func (s *EditSession) Editing() *domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editing
}

func (s *EditSession) Form() dto.ProductForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

func (s *EditSession) SetForm(f dto.ProductForm) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = f
}

// SelectPhoto replaces the primary photo with a local file.
func (s *EditSession) SelectPhoto(f blob.File) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.photo = f
}

// ClearPhoto drops the selected file, falling back to the edited
// product's photo if there is one.
func (s *EditSession) ClearPhoto() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.photo = nil
}

// PhotoPreview returns what the editor shows as the primary photo: the
// selected file's name, or the URL of the edited product's photo.
func (s *EditSession) PhotoPreview() (name, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.photo != nil {
		return s.photo.Name(), ""
	}
	u, _ := catalog.PhotoURL(s.editing)
	return "", u
}

// AddGalleryFiles appends files to the gallery in selection order.
func (s *EditSession) AddGalleryFiles(files ...blob.File) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range files {
		if f != nil {
			s.newGallery = append(s.newGallery, f)
		}
	}
}

// RemoveNewGalleryFile drops the i-th newly selected file.
func (s *EditSession) RemoveNewGalleryFile(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.newGallery) {
		return false
	}
	s.newGallery = append(s.newGallery[:i:i], s.newGallery[i+1:]...)
	return true
}

// RemoveExistingGalleryImage drops the i-th image of the edited product's
// gallery, counted in the original gallery.
func (s *EditSession) RemoveExistingGalleryImage(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.existing) || s.removed[i] {
		return false
	}
	s.removed[i] = true
	return true
}

// KeptGallery returns the existing gallery references not removed, in
// their original order.
func (s *EditSession) KeptGallery() []blob.Blob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keptLocked()
}

func (s *EditSession) keptLocked() []blob.Blob {
	kept := make([]blob.Blob, 0, len(s.existing))
	for i, b := range s.existing {
		if !s.removed[i] {
			kept = append(kept, b)
		}
	}
	return kept
}

// NewGalleryFiles returns the newly selected gallery files.
func (s *EditSession) NewGalleryFiles() []blob.File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]blob.File(nil), s.newGallery...)
}

// Progress is the last reported upload percentage.
func (s *EditSession) Progress() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// Message is the last error shown to the user, empty if none.
func (s *EditSession) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastMessage
}

func (s *EditSession) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *EditSession) Submitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

// Close discards the session. An in-flight submit still completes on
// the backend but its result is not applied here.
func (s *EditSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	s.gen++
	s.clearLocked()
}

// Reset returns the session to an empty create form. Results of submits
// started before the reset are ignored.
func (s *EditSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.clearLocked()
}

func (s *EditSession) clearLocked() {
	s.editing = nil
	s.form = dto.ProductForm{}
	s.photo = nil
	s.existing = nil
	s.removed = make(map[int]bool)
	s.newGallery = nil
	s.progress = 0
	s.lastMessage = ""
	s.submitting = false
}

// begin snapshots the session for a submit.
func (s *EditSession) begin() (SubmitRequest, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return SubmitRequest{}, 0, ErrSessionClosed
	}
	if s.submitting {
		return SubmitRequest{}, 0, ErrSubmitInProgress
	}

	s.submitting = true
	s.progress = 0
	s.lastMessage = ""

	req := SubmitRequest{
		Form:        s.form,
		Photo:       s.photo,
		Gallery:     append([]blob.File(nil), s.newGallery...),
		KeptGallery: s.keptLocked(),
		Editing:     s.editing,
	}
	return req, s.gen, nil
}

func (s *EditSession) reportProgress(gen uint64, pct int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || pct < s.progress {
		return
	}
	s.progress = pct
}

// finish applies a submit outcome. It reports false when the outcome was
// stale and ignored.
func (s *EditSession) finish(gen uint64, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || !s.open {
		return false
	}
	s.submitting = false
	if err != nil {
		s.lastMessage = UserMessage(err)
		return true
	}
	s.open = false
	s.gen++
	s.clearLocked()
	return true
}

// SubmitSession submits the session's current state. On success the
// session is cleared and closed; on failure its state is kept and
// Message holds the reason.
func (s *ProductService) SubmitSession(ctx context.Context, sess *EditSession) (*domain.Product, error) {
	req, gen, err := sess.begin()
	if err != nil {
		return nil, err
	}
	req.OnProgress = func(pct int) { sess.reportProgress(gen, pct) }

	product, err := s.Submit(ctx, req)
	if !sess.finish(gen, err) {
		s.logger.InfoContext(ctx, "Ignoring submit result for closed session",
			slog.String("session_id", sess.ID().String()),
		)
	}
	return product, err
}
