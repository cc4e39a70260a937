package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ilindan-dev/mail-dispatcher/internal/domain/model"
	repo "github.com/ilindan-dev/mail-dispatcher/internal/domain/repository"
	"github.com/ilindan-dev/mail-dispatcher/internal/notifiers"
	"github.com/ilindan-dev/mail-dispatcher/internal/service"
	"github.com/ilindan-dev/mail-dispatcher/internal/storage/memory"
	"github.com/ilindan-dev/mail-dispatcher/internal/templates"
)

// MockTransport is a mock implementation of notifiers.Transport.
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Name() string { return "mock" }

func (m *MockTransport) Deliver(ctx context.Context, to string, msg *model.RenderedMessage) (*model.DeliveryReceipt, error) {
	args := m.Called(ctx, to, msg)
	receipt, _ := args.Get(0).(*model.DeliveryReceipt)
	return receipt, args.Error(1)
}

// failingJournal rejects every write.
type failingJournal struct{}

func (failingJournal) Save(context.Context, *model.DeliveryReceipt) error {
	return errors.New("journal down")
}

func (failingJournal) GetByID(context.Context, uuid.UUID) (*model.DeliveryReceipt, error) {
	return nil, repo.ErrNotFound
}

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func templateDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func newLoader(dir string) templates.Loader {
	return templates.NewCompiler(templates.NewFileStore(dir, ".hbs"), templates.NewEngine())
}

func TestDispatch_WelcomeScenario(t *testing.T) {
	t.Parallel()

	dir := templateDir(t, map[string]string{"welcome.hbs": "Hi {{name}}, welcome!"})
	capture := notifiers.NewCaptureTransport("no-reply@example.com", nopLogger())
	d := service.NewDispatcher(newLoader(dir), capture, nil, nopLogger())

	receipt, err := d.Dispatch(context.Background(), model.NotificationRequest{
		To:       "a@b.com",
		Subject:  "Welcome",
		Template: "welcome",
		Context:  map[string]any{"name": "Ada"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCaptured, receipt.Status)
	assert.Equal(t, "welcome", receipt.Template)

	msg, ok := capture.Last()
	require.True(t, ok)
	assert.Equal(t, "a@b.com", msg.To)
	assert.Equal(t, "Welcome", msg.Message.Subject)
	assert.Equal(t, "Hi Ada, welcome!", msg.Message.Body)
	assert.NotContains(t, msg.Message.Headers, model.TagsHeader)
}

func TestDispatch_TagsHeader(t *testing.T) {
	t.Parallel()

	dir := templateDir(t, map[string]string{"welcome.hbs": "Hi {{name}}"})

	tests := []struct {
		name       string
		tags       []string
		wantHeader string
		wantSet    bool
	}{
		{name: "two tags", tags: []string{"a", "b"}, wantHeader: "a,b", wantSet: true},
		{name: "single tag", tags: []string{"onboarding"}, wantHeader: "onboarding", wantSet: true},
		{name: "nil tags", tags: nil},
		{name: "empty tags", tags: []string{}},
		{name: "whitespace only", tags: []string{" ", ""}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			capture := notifiers.NewCaptureTransport("from@example.com", nopLogger())
			d := service.NewDispatcher(newLoader(dir), capture, nil, nopLogger())

			_, err := d.Dispatch(context.Background(), model.NotificationRequest{
				To: "a@b.com", Subject: "s", Template: "welcome", Tags: tt.tags,
			})
			require.NoError(t, err)

			msg, ok := capture.Last()
			require.True(t, ok)
			got, set := msg.Message.Headers[model.TagsHeader]
			assert.Equal(t, tt.wantSet, set)
			assert.Equal(t, tt.wantHeader, got)
		})
	}
}

func TestDispatch_MissingContextRendersEmpty(t *testing.T) {
	t.Parallel()

	dir := templateDir(t, map[string]string{"hello.hbs": "Hello {{name}}"})
	capture := notifiers.NewCaptureTransport("from@example.com", nopLogger())
	d := service.NewDispatcher(newLoader(dir), capture, nil, nopLogger())

	_, err := d.Dispatch(context.Background(), model.NotificationRequest{To: "a@b.com", Subject: "s", Template: "hello"})
	require.NoError(t, err)

	msg, _ := capture.Last()
	assert.Equal(t, "Hello ", msg.Message.Body)
}

func TestDispatch_TemplateErrorsNeverReachTheTransport(t *testing.T) {
	t.Parallel()

	self := map[string]any{}
	self["self"] = self

	dir := templateDir(t, map[string]string{
		"broken.hbs": "{{#if x}}never closed",
		"ok.hbs":     "{{name}}",
	})

	tests := []struct {
		name     string
		template string
		context  map[string]any
		wantErr  error
	}{
		{name: "not found", template: "does-not-exist", wantErr: templates.ErrTemplateNotFound},
		{name: "syntax", template: "broken", wantErr: templates.ErrTemplateSyntax},
		{name: "render", template: "ok", context: map[string]any{"name": self}, wantErr: templates.ErrTemplateRender},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			transport := &MockTransport{}
			journal := memory.NewReceiptRepository()
			d := service.NewDispatcher(newLoader(dir), transport, journal, nopLogger())

			receipt, err := d.Dispatch(context.Background(), model.NotificationRequest{
				To: "a@b.com", Subject: "s", Template: tt.template, Context: tt.context,
			})
			assert.Nil(t, receipt)
			assert.ErrorIs(t, err, tt.wantErr)
			transport.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestDispatch_TransportErrorIsPropagatedUnmodified(t *testing.T) {
	t.Parallel()

	dir := templateDir(t, map[string]string{"welcome.hbs": "Hi"})
	deliveryErr := errors.New("connection refused")
	wrapped := errors.Join(notifiers.ErrTransportDelivery, deliveryErr)

	transport := &MockTransport{}
	transport.On("Deliver", mock.Anything, "a@b.com", mock.AnythingOfType("*model.RenderedMessage")).
		Return(nil, wrapped).Once()

	journal := memory.NewReceiptRepository()
	d := service.NewDispatcher(newLoader(dir), transport, journal, nopLogger())

	receipt, err := d.Dispatch(context.Background(), model.NotificationRequest{To: "a@b.com", Subject: "s", Template: "welcome"})
	assert.Nil(t, receipt)
	assert.Same(t, wrapped, err)
	transport.AssertExpectations(t)
}

func TestDispatch_RecordsReceipts(t *testing.T) {
	t.Parallel()

	dir := templateDir(t, map[string]string{"welcome.hbs": "Hi {{name}}"})
	capture := notifiers.NewCaptureTransport("from@example.com", nopLogger())
	journal := memory.NewReceiptRepository()
	d := service.NewDispatcher(newLoader(dir), capture, journal, nopLogger())

	receipt, err := d.Dispatch(context.Background(), model.NotificationRequest{
		To: "a@b.com", Subject: "Welcome", Template: "welcome", Tags: []string{"a"},
	})
	require.NoError(t, err)

	stored, err := d.GetReceipt(context.Background(), receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, "welcome", stored.Template)
	assert.Equal(t, []string{"a"}, stored.Tags)
	assert.Equal(t, model.StatusCaptured, stored.Status)

	_, err = d.GetReceipt(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestDispatch_JournalFailureDoesNotFailDispatch(t *testing.T) {
	t.Parallel()

	dir := templateDir(t, map[string]string{"welcome.hbs": "Hi"})
	capture := notifiers.NewCaptureTransport("from@example.com", nopLogger())
	d := service.NewDispatcher(newLoader(dir), capture, failingJournal{}, nopLogger())

	receipt, err := d.Dispatch(context.Background(), model.NotificationRequest{To: "a@b.com", Subject: "s", Template: "welcome"})
	require.NoError(t, err)
	assert.NotNil(t, receipt)
}

func TestDispatch_GetReceiptWithoutJournal(t *testing.T) {
	t.Parallel()

	d := service.NewDispatcher(newLoader(t.TempDir()), &MockTransport{}, nil, nopLogger())
	_, err := d.GetReceipt(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestDispatch_Concurrent(t *testing.T) {
	t.Parallel()

	dir := templateDir(t, map[string]string{"welcome.hbs": "Hi {{name}}"})
	capture := notifiers.NewCaptureTransport("from@example.com", nopLogger())
	loader := templates.NewCache(newLoader(dir), nopLogger())
	d := service.NewDispatcher(loader, capture, memory.NewReceiptRepository(), nopLogger())

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.Dispatch(context.Background(), model.NotificationRequest{
				To: "a@b.com", Subject: "s", Template: "welcome", Context: map[string]any{"name": "Ada"},
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	msgs := capture.Messages()
	require.Len(t, msgs, 25)
	for _, m := range msgs {
		assert.Equal(t, "Hi Ada", m.Message.Body)
	}
}

func TestBuildMessage(t *testing.T) {
	t.Parallel()

	msg := service.BuildMessage("Subject", "<p>body</p>", []string{"x", "y", "z"})
	assert.Equal(t, "Subject", msg.Subject)
	assert.Equal(t, "<p>body</p>", msg.Body)
	assert.Equal(t, map[string]string{"X-Tags": "x,y,z"}, msg.Headers)

	assert.Empty(t, service.BuildMessage("s", "b", nil).Headers)
}
