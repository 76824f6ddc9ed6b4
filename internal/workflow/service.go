package workflow

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/SeakMengs/AutoSign/internal/constant"
	"github.com/SeakMengs/AutoSign/internal/model"
	"github.com/SeakMengs/AutoSign/internal/notifier"
	"github.com/SeakMengs/AutoSign/internal/repository"
	"github.com/SeakMengs/AutoSign/internal/util"
	"github.com/SeakMengs/AutoSign/pkg/autosign"
	"go.uber.org/zap"
)

const (
	idLength        = 12
	defaultFileName = "document.pdf"
	createLockKey   = "template:create"
)

type ExportFile struct {
	Name    string
	Content []byte
}

type ExportedFile struct {
	Name   string `json:"name"`
	Object string `json:"object"`
	URL    string `json:"url"`
}

// Exporter copies finished documents to external storage.
type Exporter interface {
	Export(ctx context.Context, templateID string, files []ExportFile) ([]ExportedFile, error)
}

type Service struct {
	repo       *repository.Repository
	compositor *autosign.Compositor
	publisher  notifier.Publisher
	exporter   Exporter
	logger     *zap.SugaredLogger
	now        func() time.Time
	newID      func() (string, error)
	publicURL  string

	locks      keyedMutex
	surfacesMu sync.Mutex
	surfaces   map[string]*autosign.Surface
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithIDGenerator(newID func() (string, error)) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

func WithPublisher(p notifier.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithExporter(e Exporter) Option {
	return func(s *Service) {
		s.exporter = e
	}
}

// WithPublicURL sets the base URL signing links point at.
func WithPublicURL(u string) Option {
	return func(s *Service) {
		s.publicURL = strings.TrimRight(u, "/")
	}
}

func NewService(repo *repository.Repository, compositor *autosign.Compositor, logger *zap.SugaredLogger, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		compositor: compositor,
		publisher:  notifier.NoopPublisher{},
		logger:     logger,
		now:        time.Now,
		newID: func() (string, error) {
			return util.GenerateID(idLength)
		},
		publicURL: "http://localhost:3000",
		surfaces:  map[string]*autosign.Surface{},
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

type SetupInput struct {
	FileName      string
	PDF           []byte
	Requester     model.Requester
	Recipients    []model.Recipient
	Fields        []autosign.SignatureField
	PageRotations map[int]int
}

// SaveInput replaces the setup of an existing template. Nil values keep the
// current setup.
type SaveInput struct {
	Requester     *model.Requester
	Recipients    []model.Recipient
	Fields        []autosign.SignatureField
	PageRotations map[int]int
	Publish       bool
}

// Create stores a new template and opens it for signing.
func (s *Service) Create(ctx context.Context, in SetupInput) (*model.Template, error) {
	s.logger.Debugf("Create template: %s, recipients: %d, fields: %d", in.FileName, len(in.Recipients), len(in.Fields))

	if len(in.PDF) == 0 {
		return nil, validationError("templateFile", "Please upload a PDF document.")
	}

	unlock := s.locks.Lock(createLockKey)
	defer unlock()

	now := s.now()
	id, err := s.repo.Template.NewID(ctx, now)
	if err != nil {
		return nil, err
	}

	info, err := autosign.Inspect(ctx, in.PDF)
	if err != nil {
		return nil, err
	}

	fileName := filepath.Base(strings.TrimSpace(in.FileName))
	if fileName == "" || fileName == "." {
		fileName = defaultFileName
	}

	t := &model.Template{
		ID:          id,
		OriginalPDF: in.PDF,
		FileName:    fileName,
		Requester:   trimRequester(in.Requester),
		PageCount:   info.PageCount,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.applySetup(t, in.Recipients, in.Fields, in.PageRotations); err != nil {
		return nil, err
	}
	if err := validateSetup(t); err != nil {
		return nil, err
	}

	CreateSent(t, actorOf(t), now)

	if err := s.repo.Template.Save(ctx, t); err != nil {
		s.logger.Errorf("Failed to save template %s: %v", t.ID, err)
		return nil, err
	}
	s.publish(ctx, t, constant.ActivityCreated, "")

	return t, nil
}

// Save replaces the setup and moves the document to Draft, or Sent when published.
func (s *Service) Save(ctx context.Context, templateID string, in SaveInput) (*model.Template, error) {
	s.logger.Debugf("Save template: %s, publish: %t", templateID, in.Publish)

	unlock := s.locks.Lock(templateID)
	defer unlock()

	t, err := s.load(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if !t.Status.Editable() {
		return nil, fmt.Errorf("%w: document is %s", ErrNotEditable, t.Status)
	}

	if in.Requester != nil {
		t.Requester = trimRequester(*in.Requester)
	}

	recipients, fields, rotations := in.Recipients, in.Fields, in.PageRotations
	if recipients == nil {
		recipients = t.Recipients
	}
	if fields == nil {
		fields = t.Fields
	}
	if rotations == nil {
		rotations = t.PageRotations
	}
	if err := s.applySetup(t, recipients, fields, rotations); err != nil {
		return nil, err
	}
	if err := validateSetup(t); err != nil {
		return nil, err
	}

	now := s.now()
	if err := SaveSetup(t, in.Publish, actorOf(t), now); err != nil {
		return nil, err
	}
	t.UpdatedAt = now

	if err := s.repo.Template.Save(ctx, t); err != nil {
		s.logger.Errorf("Failed to save template %s: %v", t.ID, err)
		return nil, err
	}
	s.publish(ctx, t, constant.ActivitySaved, "")
	if t.Status == constant.TemplateStatusCompleted {
		s.publish(ctx, t, constant.ActivityCompleted, "")
	}

	return t, nil
}

// ApplyEvents runs builder events in order. Either every event applies and
// the result is saved, or nothing is.
func (s *Service) ApplyEvents(ctx context.Context, templateID string, events []BuilderEvent) (*model.Template, error) {
	s.logger.Debugf("Apply %d builder events to template: %s", len(events), templateID)

	unlock := s.locks.Lock(templateID)
	defer unlock()

	t, err := s.load(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if !t.Status.Editable() {
		return nil, fmt.Errorf("%w: document is %s", ErrNotEditable, t.Status)
	}

	b := NewBuilder(t, s.newID)
	for idx, event := range events {
		s.logger.Debugf("Processing event #%d, type %s", idx, event.Type)
		if err := b.Apply(event); err != nil {
			return nil, fmt.Errorf("event #%d (%s): %w", idx, event.Type, err)
		}
	}
	t = b.Template()
	if err := validateSetup(t); err != nil {
		return nil, err
	}

	now := s.now()
	completed := completeIfAllSigned(t, now)
	t.UpdatedAt = now

	if err := s.repo.Template.Save(ctx, t); err != nil {
		s.logger.Errorf("Failed to save template %s: %v", t.ID, err)
		return nil, err
	}
	if completed {
		s.publish(ctx, t, constant.ActivityCompleted, "")
	}

	return t, nil
}

// ReplaceDocument swaps the PDF of a template nobody has signed yet. Fields
// on pages that no longer exist are dropped.
func (s *Service) ReplaceDocument(ctx context.Context, templateID, fileName string, pdf []byte) (*model.Template, error) {
	s.logger.Debugf("Replace document of template: %s with %s", templateID, fileName)

	if len(pdf) == 0 {
		return nil, validationError("templateFile", "Please upload a PDF document.")
	}

	// Decode outside the template lock so a newer upload can supersede this one.
	info, err := s.surface(templateID).InspectLatest(ctx, pdf)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(templateID)
	defer unlock()

	t, err := s.load(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if !t.Status.Editable() {
		return nil, fmt.Errorf("%w: document is %s", ErrNotEditable, t.Status)
	}
	for _, r := range t.Recipients {
		if r.Status == constant.RecipientStatusSigned {
			return nil, fmt.Errorf("%w: %s has already signed", ErrNotEditable, r.Name)
		}
	}

	b := NewBuilder(t, s.newID)
	for _, f := range t.Fields {
		if f.Page > info.PageCount {
			b.RemoveField(f.ID)
		}
	}
	t = b.Template()
	for page := range t.PageRotations {
		if page > info.PageCount {
			delete(t.PageRotations, page)
		}
	}

	if name := filepath.Base(strings.TrimSpace(fileName)); name != "" && name != "." {
		t.FileName = name
	}
	t.OriginalPDF = pdf
	t.LastSignedPDF = nil
	t.PageCount = info.PageCount
	if err := validateSetup(t); err != nil {
		return nil, err
	}

	now := s.now()
	Append(t, now, fmt.Sprintf("Document replaced with %s by %s.", t.FileName, actorOf(t)))
	t.UpdatedAt = now

	if err := s.repo.Template.Save(ctx, t); err != nil {
		s.logger.Errorf("Failed to save template %s: %v", t.ID, err)
		return nil, err
	}
	s.publish(ctx, t, constant.ActivitySaved, "")

	return t, nil
}

func (s *Service) Get(ctx context.Context, templateID string) (*model.Template, error) {
	return s.load(ctx, templateID)
}

func (s *Service) List(ctx context.Context) ([]model.TemplateSummary, error) {
	templates, err := s.repo.Template.List(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]model.TemplateSummary, 0, len(templates))
	for _, t := range templates {
		summaries = append(summaries, t.Summary())
	}
	return summaries, nil
}

func (s *Service) Delete(ctx context.Context, templateID string) error {
	unlock := s.locks.Lock(templateID)
	defer unlock()

	t, err := s.load(ctx, templateID)
	if err != nil && !errors.Is(err, repository.ErrCorruptRecord) {
		return err
	}

	if err := s.repo.Template.Delete(ctx, templateID); err != nil {
		return mapNotFound(err)
	}
	s.dropSurface(templateID)

	if t != nil {
		Append(t, s.now(), fmt.Sprintf("Document deleted by %s.", actorOf(t)))
		s.publish(ctx, t, constant.ActivityDeleted, "")
	}

	return nil
}

// DeleteAll clears every stored document and returns how many were removed.
func (s *Service) DeleteAll(ctx context.Context) (int, error) {
	deleted, err := s.repo.Template.DeleteAll(ctx)

	s.surfacesMu.Lock()
	for id, surface := range s.surfaces {
		surface.Cancel()
		delete(s.surfaces, id)
	}
	s.surfacesMu.Unlock()

	return deleted, err
}

type RecipientLink struct {
	RecipientID string                   `json:"recipientId"`
	Name        string                   `json:"name"`
	Email       string                   `json:"email"`
	Color       string                   `json:"color"`
	Status      constant.RecipientStatus `json:"status"`
	Link        string                   `json:"link"`
}

// Links returns one signing link per recipient. Links are handed back to the
// caller, never sent anywhere.
func (s *Service) Links(ctx context.Context, templateID string) ([]RecipientLink, error) {
	t, err := s.load(ctx, templateID)
	if err != nil {
		return nil, err
	}

	links := make([]RecipientLink, 0, len(t.Recipients))
	for _, r := range t.Recipients {
		link, err := util.BuildSigningLink(s.publicURL, t.ID, r.ID)
		if err != nil {
			return nil, err
		}
		links = append(links, RecipientLink{
			RecipientID: r.ID,
			Name:        r.Name,
			Email:       r.Email,
			Color:       r.Color,
			Status:      r.Status,
			Link:        link,
		})
	}

	return links, nil
}

// QRCode encodes the recipient's signing link as a PNG.
func (s *Service) QRCode(ctx context.Context, templateID, recipientID string, size int) ([]byte, error) {
	t, err := s.load(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if _, ok := t.Recipient(recipientID); !ok {
		return nil, ErrNotRecipient
	}

	link, err := util.BuildSigningLink(s.publicURL, t.ID, recipientID)
	if err != nil {
		return nil, err
	}

	return autosign.GenerateQRCode(link, size)
}

func (s *Service) Revert(ctx context.Context, templateID string, confirm bool) (*model.Template, error) {
	return s.transition(ctx, templateID, constant.ActivityReverted, func(t *model.Template, at time.Time) error {
		return RevertToDraft(t, confirm, actorOf(t), at)
	})
}

func (s *Service) Approve(ctx context.Context, templateID string) (*model.Template, error) {
	return s.transition(ctx, templateID, constant.ActivityApproved, func(t *model.Template, at time.Time) error {
		return Approve(t, actorOf(t), at)
	})
}

func (s *Service) Reject(ctx context.Context, templateID string) (*model.Template, error) {
	return s.transition(ctx, templateID, constant.ActivityRejected, func(t *model.Template, at time.Time) error {
		return Reject(t, actorOf(t), at)
	})
}

func (s *Service) transition(ctx context.Context, templateID string, action constant.ActivityAction, apply func(*model.Template, time.Time) error) (*model.Template, error) {
	s.logger.Debugf("Transition template: %s, action: %s", templateID, action)

	unlock := s.locks.Lock(templateID)
	defer unlock()

	t, err := s.load(ctx, templateID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := apply(t, now); err != nil {
		return nil, err
	}
	t.UpdatedAt = now

	if err := s.repo.Template.Save(ctx, t); err != nil {
		s.logger.Errorf("Failed to save template %s: %v", t.ID, err)
		return nil, err
	}
	s.publish(ctx, t, action, "")

	return t, nil
}

// Download returns the latest signed PDF, or the original when nobody has signed.
func (s *Service) Download(ctx context.Context, templateID string) (string, []byte, error) {
	t, err := s.load(ctx, templateID)
	if err != nil {
		return "", nil, err
	}
	name, pdf := downloadable(t)
	return name, pdf, nil
}

func (s *Service) ActivityLog(ctx context.Context, templateID string) (string, []byte, error) {
	t, err := s.load(ctx, templateID)
	if err != nil {
		return "", nil, err
	}
	return ExportActivityLog(t)
}

// Bundle zips the downloadable PDF with the activity log and every attachment.
func (s *Service) Bundle(ctx context.Context, templateID string) (string, []byte, error) {
	t, err := s.load(ctx, templateID)
	if err != nil {
		return "", nil, err
	}

	name, pdf := downloadable(t)
	entries := []util.ZipEntry{{Name: name, Content: pdf, Modified: t.UpdatedAt}}

	if logName, log, err := ExportActivityLog(t); err == nil {
		entries = append(entries, util.ZipEntry{Name: logName, Content: log, Modified: t.UpdatedAt})
	}
	for _, a := range t.Attachments {
		owner := a.RecipientID
		if r, ok := t.Recipient(a.RecipientID); ok {
			owner = r.Name
		}
		entries = append(entries, util.ZipEntry{
			Name:     fmt.Sprintf("%s - %s", owner, a.FileName),
			Content:  a.Content,
			Modified: a.UploadedAt,
		})
	}

	data, err := util.ZipEntries(entries)
	if err != nil {
		return "", nil, err
	}

	return util.TrimPdfExt(t.FileName) + ".zip", data, nil
}

// Export uploads the downloadable PDF and the activity log to object storage.
func (s *Service) Export(ctx context.Context, templateID string) ([]ExportedFile, error) {
	if s.exporter == nil {
		return nil, ErrExportDisabled
	}

	t, err := s.load(ctx, templateID)
	if err != nil {
		return nil, err
	}

	name, pdf := downloadable(t)
	files := []ExportFile{{Name: name, Content: pdf}}
	if logName, log, err := ExportActivityLog(t); err == nil {
		files = append(files, ExportFile{Name: logName, Content: log})
	}

	exported, err := s.exporter.Export(ctx, t.ID, files)
	if err != nil {
		s.logger.Errorf("Failed to export template %s: %v", t.ID, err)
		return nil, err
	}
	return exported, nil
}

func (s *Service) load(ctx context.Context, templateID string) (*model.Template, error) {
	t, err := s.repo.Template.GetById(ctx, templateID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return t, nil
}

// applySetup rebuilds recipients, fields and rotations through the builder so
// every constraint is checked. Recipients that already signed keep their
// signature.
func (s *Service) applySetup(t *model.Template, recipients []model.Recipient, fields []autosign.SignatureField, rotations map[int]int) error {
	previous := t.Recipients
	t.Recipients = nil
	t.Fields = nil
	t.PageRotations = nil

	b := NewBuilder(t, s.newID)
	for _, r := range recipients {
		added, err := b.AddRecipient(r)
		if err != nil {
			return err
		}
		for _, old := range previous {
			if old.ID == added.ID && old.Status == constant.RecipientStatusSigned {
				current, _ := t.Recipient(added.ID)
				current.Status = old.Status
				current.SignedAt = old.SignedAt
				current.SignerInfo = old.SignerInfo
			}
		}
	}
	for _, f := range fields {
		if _, err := b.PlaceFieldWithID(f); err != nil {
			return err
		}
	}
	for page, rotation := range rotations {
		if err := b.RotatePage(page, rotation); err != nil {
			return err
		}
	}
	b.Template()

	pruneAttachments(t)
	return nil
}

// pruneAttachments drops uploads whose field is gone or changed owner.
func pruneAttachments(t *model.Template) {
	kept := t.Attachments[:0]
	for _, a := range t.Attachments {
		for _, f := range t.Fields {
			if f.ID == a.FieldID && f.RecipientID == a.RecipientID && f.Type == autosign.FieldTypeFileUpload {
				kept = append(kept, a)
				break
			}
		}
	}
	t.Attachments = kept
}

func validateSetup(t *model.Template) error {
	if t.Requester.Name == "" {
		return validationError("requester", "Please enter the requester's name.")
	}
	if err := validate.Var(t.Requester.Email, "required,email"); err != nil {
		return validationError("requester", "Please enter a valid requester email.")
	}
	if len(t.Recipients) == 0 {
		return validationError("recipients", "Please add at least one recipient.")
	}
	if len(t.Fields) == 0 {
		return validationError("fields", "Please place at least one field on the document.")
	}
	for _, r := range t.Recipients {
		if len(t.FieldsFor(r.ID)) == 0 {
			return validationError("fields", "Please place at least one field for %s.", r.Name)
		}
	}
	return nil
}

func trimRequester(r model.Requester) model.Requester {
	return model.Requester{Name: strings.TrimSpace(r.Name), Email: strings.TrimSpace(r.Email)}
}

func actorOf(t *model.Template) string {
	if t.Requester.Name != "" {
		return t.Requester.Name
	}
	return "the document owner"
}

func downloadable(t *model.Template) (string, []byte) {
	if len(t.LastSignedPDF) > 0 {
		return util.SignedFileName(t.FileName), t.LastSignedPDF
	}
	return filepath.Base(t.FileName), t.OriginalPDF
}

func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}

func (s *Service) surface(templateID string) *autosign.Surface {
	s.surfacesMu.Lock()
	defer s.surfacesMu.Unlock()

	surface, ok := s.surfaces[templateID]
	if !ok {
		surface = autosign.NewSurface()
		s.surfaces[templateID] = surface
	}
	return surface
}

func (s *Service) dropSurface(templateID string) {
	s.surfacesMu.Lock()
	defer s.surfacesMu.Unlock()

	if surface, ok := s.surfaces[templateID]; ok {
		surface.Cancel()
		delete(s.surfaces, templateID)
	}
}

// publish mirrors the latest log entry to the notifier. Failures are logged
// and never fail the request.
func (s *Service) publish(ctx context.Context, t *model.Template, action constant.ActivityAction, recipientID string) {
	event := notifier.Event{
		TemplateID:  t.ID,
		RecipientID: recipientID,
		Action:      action,
		Status:      t.Status,
		Timestamp:   s.now(),
	}
	if action == constant.ActivityCompleted {
		event.Message = completedMessage
	} else if n := len(t.ActivityLog); n > 0 {
		event.Message = t.ActivityLog[n-1].Message
		event.Timestamp = t.ActivityLog[n-1].Timestamp
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Errorf("Failed to publish %s event for template %s: %v", action, t.ID, err)
	}
}
