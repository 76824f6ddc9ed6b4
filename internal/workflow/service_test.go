package workflow

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/SeakMengs/AutoSign/internal/constant"
	"github.com/SeakMengs/AutoSign/internal/model"
	"github.com/SeakMengs/AutoSign/internal/notifier"
	"github.com/SeakMengs/AutoSign/internal/repository"
	"github.com/SeakMengs/AutoSign/pkg/autosign"
	"github.com/SeakMengs/AutoSign/pkg/autosign/autosigntest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testEpoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []notifier.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event notifier.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) actions() []constant.ActivityAction {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []constant.ActivityAction
	for _, e := range p.events {
		out = append(out, e.Action)
	}
	return out
}

type testEnv struct {
	svc       *Service
	repo      *repository.Repository
	publisher *recordingPublisher
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	logger := zap.NewNop().Sugar()
	repo := repository.NewRepository(repository.NewMemoryStore(), logger)

	compositor, err := autosign.NewCompositor(&autosign.Config{
		TmpDir:      t.TempDir(),
		Attestation: autosign.AttestationConfig{Enabled: true, Reason: "I agree"},
	}, autosign.WithClock(func() time.Time { return testEpoch }))
	require.NoError(t, err)

	var mu sync.Mutex
	tick, seq := 0, 0
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick++
		return testEpoch.Add(time.Duration(tick) * time.Second)
	}
	ids := func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return fmt.Sprintf("id-%d", seq), nil
	}

	publisher := &recordingPublisher{}
	opts = append([]Option{
		WithClock(clock),
		WithIDGenerator(ids),
		WithPublisher(publisher),
		WithPublicURL("https://sign.example.com/"),
	}, opts...)

	return &testEnv{
		svc:       NewService(repo, compositor, logger, opts...),
		repo:      repo,
		publisher: publisher,
	}
}

func rect(x, y, w, h float64) autosign.NormalizedRect {
	return autosign.NormalizedRect{X: x, Y: y, Width: w, Height: h}
}

func twoRecipientSetup(t *testing.T) SetupInput {
	return SetupInput{
		FileName:  "contract.pdf",
		PDF:       autosigntest.PDF(t, 1, 612, 792),
		Requester: model.Requester{Name: "Olivia Owner", Email: "olivia@example.com"},
		Recipients: []model.Recipient{
			{ID: "alice", Name: "Alice Smith", Email: "alice@example.com"},
			{ID: "bob", Name: "Bob Jones", Email: "bob@example.com"},
		},
		Fields: []autosign.SignatureField{
			{RecipientID: "alice", Page: 1, Type: autosign.FieldTypeSignature, NormalizedRect: rect(0.1, 0.7, 0.2, 0.05)},
			{RecipientID: "bob", Page: 1, Type: autosign.FieldTypeSignature, NormalizedRect: rect(0.6, 0.7, 0.2, 0.05)},
		},
	}
}

func signer(t *testing.T, name string) autosign.SignerInfo {
	return autosign.SignerInfo{FullName: name, SignatureImage: autosigntest.PNG(t, 300, 100)}
}

func lastLog(tpl *model.Template) string {
	if len(tpl.ActivityLog) == 0 {
		return ""
	}
	return tpl.ActivityLog[len(tpl.ActivityLog)-1].Message
}

func TestCreateOpensSigning(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tpl, err := env.svc.Create(ctx, twoRecipientSetup(t))
	require.NoError(t, err)

	assert.Equal(t, constant.TemplateStatusSent, tpl.Status)
	assert.Equal(t, 1, tpl.PageCount)
	assert.Regexp(t, `^template-\d+$`, tpl.ID)
	assert.Len(t, tpl.ActivityLog, 1)
	assert.NotEqual(t, tpl.Recipients[0].Color, tpl.Recipients[1].Color)
	for _, f := range tpl.Fields {
		assert.NotEmpty(t, f.ID)
	}

	stored, err := env.svc.Get(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, tpl.Recipients, stored.Recipients)
	assert.Equal(t, []constant.ActivityAction{constant.ActivityCreated}, env.publisher.actions())

	links, err := env.svc.Links(ctx, tpl.ID)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "https://sign.example.com/?recipientId=alice&templateId="+tpl.ID, links[0].Link)

	session, err := env.svc.OpenLink(ctx, links[1].Link)
	require.NoError(t, err)
	assert.Equal(t, "bob", session.Recipient.ID)
	assert.Len(t, session.Fields, 1)
	assert.True(t, session.ReadyToFinalize)

	png, err := env.svc.QRCode(ctx, tpl.ID, "alice", 128)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])
}

func TestCreateValidationWritesNothing(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SetupInput)
		check  func(t *testing.T, err error)
	}{
		{
			name:   "no recipients",
			mutate: func(in *SetupInput) { in.Recipients = nil; in.Fields = nil },
			check: func(t *testing.T, err error) {
				var ve *ValidationError
				require.True(t, errors.As(err, &ve))
				assert.Equal(t, "Please add at least one recipient.", ve.Message)
			},
		},
		{
			name:   "no fields",
			mutate: func(in *SetupInput) { in.Fields = nil },
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, ErrValidation))
			},
		},
		{
			name:   "missing requester",
			mutate: func(in *SetupInput) { in.Requester = model.Requester{} },
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, ErrValidation))
			},
		},
		{
			name: "duplicate signature",
			mutate: func(in *SetupInput) {
				in.Fields = append(in.Fields, autosign.SignatureField{RecipientID: "alice", Page: 1, Type: autosign.FieldTypeSignature, NormalizedRect: rect(0.1, 0.1, 0.2, 0.05)})
			},
			check: func(t *testing.T, err error) {
				assert.True(t, autosign.IsConstraintError(err, autosign.ConstraintDuplicateExclusiveField))
			},
		},
		{
			name: "unknown recipient",
			mutate: func(in *SetupInput) {
				in.Fields[0].RecipientID = "mallory"
			},
			check: func(t *testing.T, err error) {
				assert.True(t, autosign.IsConstraintError(err, autosign.ConstraintMissingRecipient))
			},
		},
		{
			name:   "undecodable pdf",
			mutate: func(in *SetupInput) { in.PDF = []byte("not a pdf") },
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, autosign.ErrDecode))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			in := twoRecipientSetup(t)
			tt.mutate(&in)

			_, err := env.svc.Create(context.Background(), in)
			require.Error(t, err)
			tt.check(t, err)

			list, err := env.svc.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestTwoRecipientsCompleteInOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tpl, err := env.svc.Create(ctx, twoRecipientSetup(t))
	require.NoError(t, err)

	res, err := env.svc.Finalize(ctx, FinalizeInput{TemplateID: tpl.ID, RecipientID: "alice", Signer: signer(t, "Alice Smith")})
	require.NoError(t, err)
	assert.False(t, res.Completed)
	assert.Equal(t, autosign.AttestationKindVisual, res.AttestationKind)
	assert.Equal(t, "[SIGNED] contract.pdf", res.FileName)

	afterA, err := env.svc.Get(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, constant.TemplateStatusSent, afterA.Status)
	alice, _ := afterA.Recipient("alice")
	bob, _ := afterA.Recipient("bob")
	assert.Equal(t, constant.RecipientStatusSigned, alice.Status)
	assert.NotNil(t, alice.SignedAt)
	assert.Equal(t, "AS", alice.SignerInfo.Initials)
	assert.Equal(t, constant.RecipientStatusPending, bob.Status)
	require.NotEmpty(t, afterA.LastSignedPDF)

	res, err = env.svc.Finalize(ctx, FinalizeInput{TemplateID: tpl.ID, RecipientID: "bob", Signer: signer(t, "Bob Jones")})
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Equal(t, constant.TemplateStatusCompleted, res.Status)

	done, err := env.svc.Get(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, constant.TemplateStatusCompleted, done.Status)
	assert.Equal(t, "Document fully signed and completed.", lastLog(done))
	assert.NotEqual(t, afterA.LastSignedPDF, done.LastSignedPDF)

	info, err := autosign.Inspect(ctx, done.LastSignedPDF)
	require.NoError(t, err)
	assert.Equal(t, 1, info.PageCount)

	_, err = env.svc.Finalize(ctx, FinalizeInput{TemplateID: tpl.ID, RecipientID: "alice", Signer: signer(t, "Alice Smith")})
	assert.True(t, errors.Is(err, ErrAlreadySigned))

	name, pdf, err := env.svc.Download(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "[SIGNED] contract.pdf", name)
	assert.Equal(t, done.LastSignedPDF, pdf)

	assert.Equal(t, []constant.ActivityAction{
		constant.ActivityCreated,
		constant.ActivitySigned,
		constant.ActivitySigned,
		constant.ActivityCompleted,
	}, env.publisher.actions())
}

func TestFinalizeBlockedByMissingUpload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	in := twoRecipientSetup(t)
	in.Fields = append(in.Fields, autosign.SignatureField{ID: "upload-1", RecipientID: "alice", Page: 1, Type: autosign.FieldTypeFileUpload, NormalizedRect: rect(0.1, 0.2, 0.15, 0.05)})
	tpl, err := env.svc.Create(ctx, in)
	require.NoError(t, err)

	session, err := env.svc.Open(ctx, tpl.ID, "alice")
	require.NoError(t, err)
	assert.False(t, session.ReadyToFinalize)
	assert.Equal(t, []string{"upload-1"}, session.MissingUploads)

	_, err = env.svc.Finalize(ctx, FinalizeInput{TemplateID: tpl.ID, RecipientID: "alice", Signer: signer(t, "Alice Smith")})
	assert.True(t, errors.Is(err, ErrMissingUploads))

	unchanged, err := env.svc.Get(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Empty(t, unchanged.LastSignedPDF)
	alice, _ := unchanged.Recipient("alice")
	assert.Equal(t, constant.RecipientStatusPending, alice.Status)

	_, err = env.svc.UploadAttachment(ctx, tpl.ID, AttachmentUpload{FieldID: "upload-1", RecipientID: "bob", FileName: "id.png", Content: []byte("x")})
	assert.True(t, errors.Is(err, ErrValidation))

	session, err = env.svc.UploadAttachment(ctx, tpl.ID, AttachmentUpload{FieldID: "upload-1", RecipientID: "alice", FileName: "id.txt", Content: []byte("passport")})
	require.NoError(t, err)
	assert.True(t, session.ReadyToFinalize)
	require.Len(t, session.Attachments, 1)
	assert.Equal(t, "text/plain; charset=utf-8", session.Attachments[0].MimeType)

	_, err = env.svc.Finalize(ctx, FinalizeInput{TemplateID: tpl.ID, RecipientID: "alice", Signer: signer(t, "Alice Smith")})
	require.NoError(t, err)
}

func TestRemoveAttachmentBlocksAgain(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	in := twoRecipientSetup(t)
	in.Fields = append(in.Fields, autosign.SignatureField{ID: "upload-1", RecipientID: "bob", Page: 1, Type: autosign.FieldTypeFileUpload, NormalizedRect: rect(0.1, 0.2, 0.15, 0.05)})
	tpl, err := env.svc.Create(ctx, in)
	require.NoError(t, err)

	_, err = env.svc.UploadAttachment(ctx, tpl.ID, AttachmentUpload{FieldID: "upload-1", RecipientID: "bob", FileName: "a.pdf", MimeType: "application/pdf", Content: []byte("%PDF")})
	require.NoError(t, err)

	session, err := env.svc.RemoveAttachment(ctx, tpl.ID, "bob", "upload-1")
	require.NoError(t, err)
	assert.False(t, session.ReadyToFinalize)
	assert.Empty(t, session.Attachments)

	_, err = env.svc.RemoveAttachment(ctx, tpl.ID, "bob", "upload-1")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestRotationDoesNotMovePlacements(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	in := twoRecipientSetup(t)
	in.Fields[0].NormalizedRect = rect(0.4, 0.9, 0.2, 0.05)
	in.PageRotations = map[int]int{1: 90}
	tpl, err := env.svc.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 90, tpl.Rotation(1))

	info, err := autosign.Inspect(ctx, tpl.OriginalPDF)
	require.NoError(t, err)

	rotated := ResolvePlacements(tpl, info, "alice")
	require.Len(t, rotated, 1)
	assert.InDelta(t, 0.4*612, rotated[0].X, 1e-9)
	assert.InDelta(t, 0.2*612, rotated[0].Width, 1e-9)

	rotate := BuilderEvent{Type: constant.EventPageRotate, Data: []byte(`{"page":1,"rotation":0}`)}
	tpl, err = env.svc.ApplyEvents(ctx, tpl.ID, []BuilderEvent{rotate})
	require.NoError(t, err)
	assert.Equal(t, 0, tpl.Rotation(1))

	// The mark lands where the same fractions fall on the unrotated page.
	placements := ResolvePlacements(tpl, info, "alice")
	require.Len(t, placements, 1)
	p := placements[0]
	assert.InDelta(t, 0.4*612, p.X, 1e-9)
	assert.InDelta(t, 0.9*792, p.Y, 1e-9)
	assert.InDelta(t, 0.2*612, p.Width, 1e-9)
	assert.InDelta(t, 0.05*792, p.Height, 1e-9)

	res, err := env.svc.Finalize(ctx, FinalizeInput{TemplateID: tpl.ID, RecipientID: "alice", Signer: signer(t, "Alice Smith")})
	require.NoError(t, err)
	assert.Greater(t, res.Marks, 0)
}

func TestRotatedPagePlacementStaysInsidePage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	in := twoRecipientSetup(t)
	in.Fields[0].NormalizedRect = rect(0.8, 0.1, 0.15, 0.05)
	in.PageRotations = map[int]int{1: 90}
	tpl, err := env.svc.Create(ctx, in)
	require.NoError(t, err)

	info, err := autosign.Inspect(ctx, tpl.OriginalPDF)
	require.NoError(t, err)
	dims, ok := info.Page(1)
	require.True(t, ok)

	for _, rotation := range []int{90, 180, 270} {
		tpl.PageRotations = map[int]int{1: rotation}
		placements := ResolvePlacements(tpl, info, "alice")
		require.Len(t, placements, 1)
		p := placements[0]
		assert.LessOrEqual(t, p.X+p.Width, dims.Width, "rotation %d", rotation)
		assert.LessOrEqual(t, p.Y+p.Height, dims.Height, "rotation %d", rotation)
		assert.InDelta(t, 0.8*612, p.X, 1e-9, "rotation %d", rotation)
		assert.InDelta(t, 0.1*792, p.Y, 1e-9, "rotation %d", rotation)
	}
}

func completeTemplate(t *testing.T, env *testEnv) *model.Template {
	t.Helper()
	ctx := context.Background()

	tpl, err := env.svc.Create(ctx, twoRecipientSetup(t))
	require.NoError(t, err)
	for _, id := range []string{"alice", "bob"} {
		_, err := env.svc.Finalize(ctx, FinalizeInput{TemplateID: tpl.ID, RecipientID: id, Signer: signer(t, id)})
		require.NoError(t, err)
	}

	done, err := env.svc.Get(ctx, tpl.ID)
	require.NoError(t, err)
	require.Equal(t, constant.TemplateStatusCompleted, done.Status)
	return done
}

func TestRevertCompletedDocument(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	done := completeTemplate(t, env)

	_, err := env.svc.Revert(ctx, done.ID, false)
	assert.True(t, errors.Is(err, ErrConfirmationRequired))

	reverted, err := env.svc.Revert(ctx, done.ID, true)
	require.NoError(t, err)

	assert.Equal(t, constant.TemplateStatusDraft, reverted.Status)
	for _, r := range reverted.Recipients {
		assert.Equal(t, constant.RecipientStatusPending, r.Status)
		assert.Nil(t, r.SignedAt)
		assert.Nil(t, r.SignerInfo)
	}
	assert.Empty(t, reverted.LastSignedPDF)
	assert.Equal(t, reverted.OriginalPDF, reverted.SigningBase())

	// a fresh signing cycle starts from the original bytes
	sent, err := env.svc.Save(ctx, done.ID, SaveInput{Publish: true})
	require.NoError(t, err)
	assert.Equal(t, constant.TemplateStatusSent, sent.Status)

	name, pdf, err := env.svc.Download(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, "contract.pdf", name)
	assert.Equal(t, sent.OriginalPDF, pdf)
}

func TestRevertIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tpl, err := env.svc.Create(ctx, twoRecipientSetup(t))
	require.NoError(t, err)
	_, err = env.svc.Finalize(ctx, FinalizeInput{TemplateID: tpl.ID, RecipientID: "alice", Signer: signer(t, "Alice Smith")})
	require.NoError(t, err)

	once, err := env.svc.Revert(ctx, tpl.ID, true)
	require.NoError(t, err)
	twice, err := env.svc.Revert(ctx, tpl.ID, true)
	require.NoError(t, err)

	assert.Equal(t, once.Status, twice.Status)
	assert.Equal(t, once.Recipients, twice.Recipients)
	assert.Equal(t, once.Attachments, twice.Attachments)
	assert.Equal(t, once.SigningBase(), twice.SigningBase())
	require.Len(t, twice.ActivityLog, len(once.ActivityLog)+1)
	for i, e := range once.ActivityLog {
		assert.Equal(t, e.Message, twice.ActivityLog[i].Message)
	}
}

func TestApproveAndRejectOnlyFromCompleted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tpl, err := env.svc.Create(ctx, twoRecipientSetup(t))
	require.NoError(t, err)

	_, err = env.svc.Approve(ctx, tpl.ID)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	_, err = env.svc.Reject(ctx, tpl.ID)
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	done := completeTemplate(t, env)
	approved, err := env.svc.Approve(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, constant.TemplateStatusApproved, approved.Status)
	assert.Equal(t, "Document approved by Olivia Owner.", lastLog(approved))

	_, err = env.svc.Revert(ctx, done.ID, true)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	_, err = env.svc.Reject(ctx, done.ID)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	_, err = env.svc.ApplyEvents(ctx, done.ID, nil)
	assert.True(t, errors.Is(err, ErrNotEditable))
}

func TestSaveAsDraftThenPublish(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tpl, err := env.svc.Create(ctx, twoRecipientSetup(t))
	require.NoError(t, err)

	draft, err := env.svc.Save(ctx, tpl.ID, SaveInput{Publish: false})
	require.NoError(t, err)
	assert.Equal(t, constant.TemplateStatusDraft, draft.Status)

	_, err = env.svc.Open(ctx, tpl.ID, "alice")
	assert.True(t, errors.Is(err, ErrNotOpenForSigning))

	// dropping bob keeps alice's fields and colors
	in := twoRecipientSetup(t)
	published, err := env.svc.Save(ctx, tpl.ID, SaveInput{
		Recipients: draft.Recipients[:1],
		Fields:     draft.FieldsFor("alice"),
		Publish:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, constant.TemplateStatusSent, published.Status)
	require.Len(t, published.Recipients, 1)
	assert.Equal(t, draft.Recipients[0].Color, published.Recipients[0].Color)
	assert.Equal(t, in.Recipients[0].Email, published.Recipients[0].Email)

	_, err = env.svc.Save(ctx, tpl.ID, SaveInput{
		Recipients: []model.Recipient{},
		Fields:     []autosign.SignatureField{},
		Publish:    true,
	})
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestOpenErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Open(ctx, "template-404", "alice")
	assert.True(t, errors.Is(err, ErrNotFound))

	tpl, err := env.svc.Create(ctx, twoRecipientSetup(t))
	require.NoError(t, err)

	_, err = env.svc.Open(ctx, tpl.ID, "mallory")
	assert.True(t, errors.Is(err, ErrNotRecipient))

	_, err = env.svc.OpenLink(ctx, "https://sign.example.com/?templateId="+tpl.ID)
	assert.Error(t, err)
}

func TestActivityLogExportAndBundle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	done := completeTemplate(t, env)

	name, content, err := env.svc.ActivityLog(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, "contract-activity-log.txt", name)
	assert.Contains(t, string(content), "Activity Log for: contract.pdf\nDocument ID: "+done.ID+"\n\n[")
	assert.Contains(t, string(content), "] Document fully signed and completed.\n")

	zipName, data, err := env.svc.Bundle(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, "contract.zip", zipName)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"[SIGNED] contract.pdf", "contract-activity-log.txt"}, names)
}

type fakeExporter struct {
	templateID string
	files      []ExportFile
}

func (f *fakeExporter) Export(ctx context.Context, templateID string, files []ExportFile) ([]ExportedFile, error) {
	f.templateID = templateID
	f.files = files
	var out []ExportedFile
	for _, file := range files {
		out = append(out, ExportedFile{Name: file.Name, Object: "templates/" + templateID + "/" + file.Name, URL: "https://s3.example.com/" + file.Name})
	}
	return out, nil
}

func TestExport(t *testing.T) {
	ctx := context.Background()

	disabled := newTestEnv(t)
	tpl, err := disabled.svc.Create(ctx, twoRecipientSetup(t))
	require.NoError(t, err)
	_, err = disabled.svc.Export(ctx, tpl.ID)
	assert.True(t, errors.Is(err, ErrExportDisabled))

	exporter := &fakeExporter{}
	env := newTestEnv(t, WithExporter(exporter))
	tpl, err = env.svc.Create(ctx, twoRecipientSetup(t))
	require.NoError(t, err)

	exported, err := env.svc.Export(ctx, tpl.ID)
	require.NoError(t, err)
	require.Len(t, exported, 2)
	assert.Equal(t, tpl.ID, exporter.templateID)
	assert.Equal(t, "contract.pdf", exported[0].Name)
	assert.Equal(t, "contract-activity-log.txt", exported[1].Name)
}

func TestDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tpl, err := env.svc.Create(ctx, twoRecipientSetup(t))
	require.NoError(t, err)

	require.NoError(t, env.svc.Delete(ctx, tpl.ID))
	_, err = env.svc.Get(ctx, tpl.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(env.svc.Delete(ctx, tpl.ID), ErrNotFound))

	for i := 0; i < 3; i++ {
		_, err := env.svc.Create(ctx, twoRecipientSetup(t))
		require.NoError(t, err)
	}
	deleted, err := env.svc.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)
}

func TestReplaceDocumentDropsFieldsOnMissingPages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	in := twoRecipientSetup(t)
	in.PDF = autosigntest.PDF(t, 2, 612, 792)
	in.Fields = append(in.Fields, autosign.SignatureField{ID: "date-2", RecipientID: "bob", Page: 2, Type: autosign.FieldTypeDate, NormalizedRect: rect(0.1, 0.1, 0.15, 0.05)})
	in.PageRotations = map[int]int{2: 180}
	tpl, err := env.svc.Create(ctx, in)
	require.NoError(t, err)
	require.Equal(t, 2, tpl.PageCount)

	replaced, err := env.svc.ReplaceDocument(ctx, tpl.ID, "amended.pdf", autosigntest.PDF(t, 1, 595, 842))
	require.NoError(t, err)
	assert.Equal(t, 1, replaced.PageCount)
	assert.Equal(t, "amended.pdf", replaced.FileName)
	assert.Len(t, replaced.Fields, 2)
	assert.Empty(t, replaced.PageRotations)

	_, err = env.svc.Finalize(ctx, FinalizeInput{TemplateID: tpl.ID, RecipientID: "alice", Signer: signer(t, "Alice Smith")})
	require.NoError(t, err)

	_, err = env.svc.ReplaceDocument(ctx, tpl.ID, "again.pdf", autosigntest.PDF(t, 1, 595, 842))
	assert.True(t, errors.Is(err, ErrNotEditable))
}

func TestApplyEventsRejectsIncompleteSetup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tpl, err := env.svc.Create(ctx, twoRecipientSetup(t))
	require.NoError(t, err)
	require.Len(t, tpl.Fields, 2)

	tests := []struct {
		name   string
		events []BuilderEvent
	}{
		{
			name: "all fields removed",
			events: []BuilderEvent{
				{Type: constant.EventFieldRemove, Data: []byte(fmt.Sprintf(`{"id":%q}`, tpl.Fields[0].ID))},
				{Type: constant.EventFieldRemove, Data: []byte(fmt.Sprintf(`{"id":%q}`, tpl.Fields[1].ID))},
			},
		},
		{
			name: "recipient left without fields",
			events: []BuilderEvent{
				{Type: constant.EventFieldRemove, Data: []byte(fmt.Sprintf(`{"id":%q}`, tpl.Fields[1].ID))},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.ApplyEvents(ctx, tpl.ID, tt.events)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))

			stored, err := env.svc.Get(ctx, tpl.ID)
			require.NoError(t, err)
			assert.Len(t, stored.Fields, 2)
			assert.Equal(t, constant.TemplateStatusSent, stored.Status)
		})
	}

	_, err = env.svc.Finalize(ctx, FinalizeInput{TemplateID: tpl.ID, RecipientID: "alice", Signer: signer(t, "Alice Smith")})
	require.NoError(t, err)
}

func TestReplaceDocumentRejectsSetupWithoutFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	in := twoRecipientSetup(t)
	in.PDF = autosigntest.PDF(t, 2, 612, 792)
	in.Fields[1].Page = 2
	tpl, err := env.svc.Create(ctx, in)
	require.NoError(t, err)

	_, err = env.svc.ReplaceDocument(ctx, tpl.ID, "short.pdf", autosigntest.PDF(t, 1, 612, 792))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	stored, err := env.svc.Get(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.PageCount)
	assert.Equal(t, "contract.pdf", stored.FileName)
	assert.Len(t, stored.Fields, 2)
}

func TestCreateDoesNotRetainSurface(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := env.svc.Create(ctx, twoRecipientSetup(t))
		require.NoError(t, err)
	}

	env.svc.surfacesMu.Lock()
	defer env.svc.surfacesMu.Unlock()
	assert.Empty(t, env.svc.surfaces)
}
