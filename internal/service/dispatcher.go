package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/ilindan-dev/mail-dispatcher/internal/domain/model"
	repo "github.com/ilindan-dev/mail-dispatcher/internal/domain/repository"
	"github.com/ilindan-dev/mail-dispatcher/internal/notifiers"
	"github.com/ilindan-dev/mail-dispatcher/internal/templates"
	"github.com/rs/zerolog"
)

// Dispatcher renders a named template and hands the result to the process-wide transport.
// It holds no per-call state and is safe for concurrent use.
type Dispatcher struct {
	loader    templates.Loader
	transport notifiers.Transport
	journal   repo.ReceiptRepository
	logger    zerolog.Logger
}

// NewDispatcher creates a Dispatcher. journal may be nil, in which case receipts are not recorded.
func NewDispatcher(
	loader templates.Loader,
	transport notifiers.Transport,
	journal repo.ReceiptRepository,
	logger *zerolog.Logger,
) *Dispatcher {
	return &Dispatcher{
		loader:    loader,
		transport: transport,
		journal:   journal,
		logger:    logger.With().Str("layer", "dispatcher").Logger(),
	}
}

// Dispatch resolves, renders and delivers one notification.
// Template errors abort before the transport is touched; transport errors are returned unmodified.
// There is no retry: callers wanting one wrap Dispatch themselves.
func (d *Dispatcher) Dispatch(ctx context.Context, req model.NotificationRequest) (*model.DeliveryReceipt, error) {
	log := d.logger.With().Str("template", req.Template).Str("recipient", req.To).Logger()

	renderer, err := d.loader.Load(ctx, req.Template)
	if err != nil {
		log.Warn().Err(err).Msg("cannot load template")
		return nil, err
	}

	body, err := renderer.Render(req.TemplateContext())
	if err != nil {
		log.Warn().Err(err).Msg("cannot render template")
		return nil, err
	}

	msg := BuildMessage(req.Subject, body, req.Tags)

	receipt, err := d.transport.Deliver(ctx, req.To, msg)
	if err != nil {
		log.Error().Err(err).Str("transport", d.transport.Name()).Msg("delivery failed")
		failed := model.NewDeliveryReceipt(req.To, msg, d.transport.Name(), model.StatusFailed)
		errText := err.Error()
		failed.Error = &errText
		d.record(ctx, &req, failed)
		return nil, err
	}

	d.record(ctx, &req, receipt)
	log.Info().Stringer("receipt_id", receipt.ID).Str("status", string(receipt.Status)).Msg("notification dispatched")
	return receipt, nil
}

// GetReceipt looks a receipt up in the journal.
func (d *Dispatcher) GetReceipt(ctx context.Context, id uuid.UUID) (*model.DeliveryReceipt, error) {
	if d.journal == nil {
		return nil, repo.ErrNotFound
	}
	r, err := d.journal.GetByID(ctx, id)
	if err != nil {
		d.logger.Warn().Err(err).Stringer("receipt_id", id).Msg("cannot get receipt")
		return nil, err
	}
	return r, nil
}

// record writes the receipt to the journal. The message has already left, so a
// journal failure is logged and never changes the dispatch result.
func (d *Dispatcher) record(ctx context.Context, req *model.NotificationRequest, r *model.DeliveryReceipt) {
	r.Template = req.Template
	if len(req.Tags) > 0 {
		r.Tags = append([]string(nil), req.Tags...)
	}
	if d.journal == nil {
		return
	}
	if err := d.journal.Save(ctx, r); err != nil {
		d.logger.Error().Err(err).Stringer("receipt_id", r.ID).Msg("failed to record receipt")
	}
}

// BuildMessage assembles the message handed to the transport.
// The tags header is set only when the tags carry something other than whitespace.
func BuildMessage(subject, body string, tags []string) *model.RenderedMessage {
	msg := &model.RenderedMessage{
		Subject: subject,
		Body:    body,
		Headers: map[string]string{},
	}
	if len(tags) > 0 && strings.TrimSpace(strings.Join(tags, "")) != "" {
		msg.Headers[model.TagsHeader] = strings.Join(tags, ",")
	}
	return msg
}
