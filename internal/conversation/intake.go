// Package conversation drives the step-by-step registration of an order
// through chat messages. Each session owns one draft that is only written to
// the store once the operator confirms it.
package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/Yvann20/Flask/internal/clock"
	"github.com/Yvann20/Flask/internal/logger"
	"github.com/Yvann20/Flask/internal/metrics"
	"github.com/Yvann20/Flask/internal/models"
	"github.com/Yvann20/Flask/internal/services"
	"github.com/Yvann20/Flask/internal/utils"
	"github.com/Yvann20/Flask/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	TokenGenerate = "gerar"
	TokenSkip     = "pular"
	TokenNow      = "agora"
	TokenCancel   = "cancelar"

	maxDocumentInputLength = 32
	maxTokenInputLength    = 32
)

var (
	confirmTokens = map[string]struct{}{"sim": {}, "s": {}, "confirmar": {}}
	declineTokens = map[string]struct{}{"não": {}, "nao": {}, "n": {}}
)

type orderStore interface {
	GetOrderByID(ctx context.Context, id string) *models.Order
	CreateOrder(ctx context.Context, order models.Order) bool
}

// Outcome is the result of feeding one message into a session.
type Outcome struct {
	Replies []string
	Step    Step
	// Order is set once the draft has been committed.
	Order *models.Order
}

// Intake runs the registration state machine on top of Sessions.
type Intake struct {
	sessions *Sessions
	store    orderStore
	clock    clock.Clock
	location *time.Location
	newID    func() string
	metrics  *metrics.Registry
}

type Option func(*Intake)

// WithLocation sets the time zone typed dates are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(in *Intake) {
		in.location = loc
	}
}

// WithIDGenerator replaces the generator used for the "gerar" token.
func WithIDGenerator(fn func() string) Option {
	return func(in *Intake) {
		in.newID = fn
	}
}

func NewIntake(sessions *Sessions, store orderStore, clk clock.Clock, reg *metrics.Registry, opts ...Option) *Intake {
	in := &Intake{
		sessions: sessions,
		store:    store,
		clock:    clk,
		location: time.Local,
		newID:    uuid.NewString,
		metrics:  reg,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Begin opens a session for key, dropping any draft it already had, and
// returns the first prompt.
func (in *Intake) Begin(key SessionKey) string {
	if in.sessions.Discard(key) {
		in.metrics.ConversationsClosed.WithLabelValues("restarted").Inc()
	}
	in.sessions.Create(key)
	in.metrics.ConversationsStarted.Inc()

	logger.Log.Debug("intake started", zap.Int64("chatID", key.ChatID), zap.Int64("userID", key.UserID))

	return promptID
}

func (in *Intake) Active(key SessionKey) bool {
	_, ok := in.sessions.Fetch(key)
	return ok
}

// Cancel discards the session of key. It reports whether there was one, so
// cancelling twice is harmless.
func (in *Intake) Cancel(key SessionKey) bool {
	if !in.sessions.Discard(key) {
		return false
	}

	in.metrics.ConversationsClosed.WithLabelValues("cancelled").Inc()
	logger.Log.Debug("intake cancelled", zap.Int64("chatID", key.ChatID), zap.Int64("userID", key.UserID))

	return true
}

// Handle feeds text into the session of key. The second result is false when
// key has no open session and text was not consumed.
func (in *Intake) Handle(ctx context.Context, key SessionKey, text string) (Outcome, bool) {
	state, ok := in.sessions.Fetch(key)
	if !ok {
		return Outcome{}, false
	}

	if isToken(text, TokenCancel) {
		in.Cancel(key)
		return Outcome{Replies: []string{MsgCancelled}, Step: StepCancelled}, true
	}

	next, replies, order := in.advance(ctx, state, text)

	switch next.Step {
	case StepCommitted:
		in.sessions.Discard(key)
		in.metrics.ConversationsClosed.WithLabelValues("committed").Inc()
	case StepCancelled:
		in.Cancel(key)
	default:
		in.sessions.Save(key, next)
	}

	if next.Step != state.Step {
		logger.Log.Debug("intake advanced",
			zap.Int64("chatID", key.ChatID),
			zap.String("from", state.Step.String()),
			zap.String("to", next.Step.String()),
		)
	}

	return Outcome{Replies: replies, Step: next.Step, Order: order}, true
}

// advance applies text to state. Invalid input leaves the step unchanged.
func (in *Intake) advance(ctx context.Context, state State, text string) (State, []string, *models.Order) {
	draft := &state.Draft

	switch state.Step {
	case StepAskID:
		input := validation.SanitizeText(text, services.MaxIDLength)
		var replies []string

		switch {
		case input == "":
			return state, []string{msgInvalidID}, nil
		case strings.ContainsFunc(input, unicode.IsSpace):
			return state, []string{msgIDWithSpaces}, nil
		case strings.EqualFold(input, TokenGenerate):
			input = in.newID()
			replies = append(replies, fmt.Sprintf(msgGeneratedID, input))
		}

		if in.store.GetOrderByID(ctx, input) != nil {
			return state, []string{msgDuplicateID}, nil
		}

		draft.ID = input
		state.Step = StepAskDocumentNumber
		return state, append(replies, promptDocumentNumber), nil

	case StepAskDocumentNumber:
		input := validation.SanitizeText(text, maxDocumentInputLength)
		if strings.EqualFold(input, TokenSkip) {
			input = ""
		}

		document, ok := validation.NormalizeDocumentNumber(input)
		if !ok {
			return state, []string{msgInvalidDocument}, nil
		}

		draft.DocumentNumber = document
		state.Step = StepAskName
		return state, []string{promptName}, nil

	case StepAskName:
		input := validation.SanitizeText(text, services.MaxNameLength)
		if utf8.RuneCountInString(input) < services.MinNameLength {
			return state, []string{msgShortName}, nil
		}

		draft.Name = input
		state.Step = StepAskProduct
		return state, []string{promptProduct}, nil

	case StepAskProduct:
		input := validation.SanitizeText(text, services.MaxProductLength)
		if utf8.RuneCountInString(input) < services.MinProductLength {
			return state, []string{msgShortProduct}, nil
		}

		draft.Product = input
		state.Step = StepAskValue
		return state, []string{promptValue}, nil

	case StepAskValue:
		value, ok := validation.ValidateMonetaryValue(text)
		if !ok {
			return state, []string{msgInvalidValue}, nil
		}

		draft.Value = value
		state.Step = StepAskDiscount
		return state, []string{promptDiscount}, nil

	case StepAskDiscount:
		discount, ok := validation.ValidateMonetaryValue(text)
		if !ok {
			return state, []string{msgInvalidDiscount}, nil
		}
		if discount.GreaterThan(draft.Value) {
			return state, []string{msgDiscountTooLarge}, nil
		}

		draft.Discount = discount
		state.Step = StepAskTransactionID
		return state, []string{promptTransactionID}, nil

	case StepAskTransactionID:
		input := validation.SanitizeText(text, services.MaxTransactionIDLength)
		if strings.EqualFold(input, TokenSkip) {
			input = ""
		}

		draft.TransactionID = input
		state.Step = StepAskDate
		return state, []string{promptDate}, nil

	case StepAskDate:
		var createdAt time.Time
		if isToken(text, TokenNow) {
			createdAt = in.clock.Now()
		} else {
			parsed, ok := validation.ParseDateTime(text, in.location)
			if !ok {
				return state, []string{msgInvalidDate}, nil
			}
			createdAt = parsed
		}

		draft.CreatedAt = createdAt
		state.Step = StepConfirm
		return state, []string{in.summary(*draft)}, nil

	case StepConfirm:
		answer := strings.ToLower(validation.SanitizeText(text, maxTokenInputLength))

		if _, ok := declineTokens[answer]; ok {
			state.Step = StepCancelled
			return state, []string{MsgCancelled}, nil
		}
		if _, ok := confirmTokens[answer]; !ok {
			return state, []string{promptConfirm}, nil
		}

		order := draft.order()
		if !in.store.CreateOrder(ctx, order) {
			return state, []string{msgSaveFailed}, nil
		}

		logger.Log.Info("order registered through chat", zap.String("orderID", order.ID))

		state.Step = StepCommitted
		return state, []string{fmt.Sprintf(msgCommitted, order.ID, order.ID)}, &order
	}

	return state, nil, nil
}

// order turns the draft into the record handed to the store. Savings is
// derived here and nowhere earlier.
func (d Draft) order() models.Order {
	return models.Order{
		ID:             d.ID,
		DocumentNumber: d.DocumentNumber,
		Name:           d.Name,
		Product:        d.Product,
		Value:          d.Value,
		Discount:       d.Discount,
		Savings:        d.Value.Sub(d.Discount),
		Status:         models.StatusPending,
		TransactionID:  d.TransactionID,
		CreatedAt:      utils.RFC3339Date{Time: d.CreatedAt},
	}
}

func (in *Intake) summary(d Draft) string {
	var b strings.Builder

	b.WriteString("📋 Confira os dados do pedido:\n\n")
	fmt.Fprintf(&b, "ID: %s\n", d.ID)
	fmt.Fprintf(&b, "CPF: %s\n", models.FormatDocumentNumber(d.DocumentNumber))
	fmt.Fprintf(&b, "Nome: %s\n", d.Name)
	fmt.Fprintf(&b, "Produto: %s\n", d.Product)
	fmt.Fprintf(&b, "Valor: %s\n", models.FormatMoney(d.Value))
	fmt.Fprintf(&b, "Desconto: %s\n", models.FormatMoney(d.Discount))
	fmt.Fprintf(&b, "Valor Final: %s\n", models.FormatMoney(d.Value.Sub(d.Discount)))
	fmt.Fprintf(&b, "ID da Transação: %s\n", models.OrNA(d.TransactionID))
	fmt.Fprintf(&b, "Data/Hora: %s\n\n", d.CreatedAt.In(in.location).Format(validation.DateTimeLayout))
	b.WriteString(promptConfirm)

	return b.String()
}

func isToken(text, token string) bool {
	return strings.EqualFold(strings.TrimSpace(text), token)
}
