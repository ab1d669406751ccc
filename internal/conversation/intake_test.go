package conversation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Yvann20/Flask/internal/clock"
	"github.com/Yvann20/Flask/internal/metrics"
	"github.com/Yvann20/Flask/internal/models"
	mock_models "github.com/Yvann20/Flask/internal/models/mocks"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testNow = time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)
	testKey = SessionKey{ChatID: 100, UserID: 42}
)

func newTestIntake(store orderStore) *Intake {
	reg := metrics.NewRegistry()
	return NewIntake(NewSessions(reg), store, clock.NewFixed(testNow), reg,
		WithLocation(time.UTC),
		WithIDGenerator(func() string { return "generated-id" }),
	)
}

// feed sends every input in order and returns the last outcome.
func feed(t *testing.T, in *Intake, inputs ...string) Outcome {
	t.Helper()

	var outcome Outcome
	for _, input := range inputs {
		var ok bool
		outcome, ok = in.Handle(context.Background(), testKey, input)
		require.True(t, ok, "input %q was not consumed", input)
	}
	return outcome
}

func currentStep(t *testing.T, in *Intake) Step {
	t.Helper()

	state, ok := in.sessions.Fetch(testKey)
	require.True(t, ok)
	return state.Step
}

func TestIntakeCommitsOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mock_models.NewMockOrderService(ctrl)
	intake := newTestIntake(store)

	var saved models.Order
	store.EXPECT().GetOrderByID(gomock.Any(), "A1").Return(nil)
	store.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, order models.Order) bool {
			saved = order
			return true
		},
	)

	assert.Equal(t, promptID, intake.Begin(testKey))

	outcome := feed(t, intake,
		"A1",
		"123.456.789-01",
		"Maria Silva",
		"Tênis de corrida",
		"100,00",
		"10",
		"TX-9",
		"01/06/2024 09:30:00",
	)
	assert.Equal(t, StepConfirm, outcome.Step)
	require.Len(t, outcome.Replies, 1)
	assert.Contains(t, outcome.Replies[0], "Valor Final: R$ 90.00")
	assert.Contains(t, outcome.Replies[0], "CPF: 123.456.789-01")

	outcome = feed(t, intake, "Sim")
	assert.Equal(t, StepCommitted, outcome.Step)
	require.NotNil(t, outcome.Order)
	assert.Equal(t, fmt.Sprintf(msgCommitted, "A1", "A1"), outcome.Replies[0])

	assert.Equal(t, "A1", saved.ID)
	assert.Equal(t, "12345678901", saved.DocumentNumber)
	assert.Equal(t, "90.00", saved.Savings.StringFixed(2))
	assert.Equal(t, models.StatusPending, saved.Status)
	assert.Equal(t, "TX-9", saved.TransactionID)
	assert.True(t, time.Date(2024, time.June, 1, 9, 30, 0, 0, time.UTC).Equal(saved.CreatedAt.Time))

	assert.False(t, intake.Active(testKey))
}

func TestIntakeSkipsOptionalFieldsAndGeneratesID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mock_models.NewMockOrderService(ctrl)
	intake := newTestIntake(store)

	var saved models.Order
	store.EXPECT().GetOrderByID(gomock.Any(), "generated-id").Return(nil)
	store.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, order models.Order) bool {
			saved = order
			return true
		},
	)

	intake.Begin(testKey)

	outcome := feed(t, intake, "GERAR")
	require.Len(t, outcome.Replies, 2)
	assert.Equal(t, fmt.Sprintf(msgGeneratedID, "generated-id"), outcome.Replies[0])
	assert.Equal(t, promptDocumentNumber, outcome.Replies[1])

	feed(t, intake, "pular", "João Souza", "Camiseta", "50", "0", "Pular", "agora", "s")

	assert.Equal(t, "generated-id", saved.ID)
	assert.Empty(t, saved.DocumentNumber)
	assert.Empty(t, saved.TransactionID)
	assert.True(t, testNow.Equal(saved.CreatedAt.Time))
	assert.Equal(t, "50.00", saved.Savings.StringFixed(2))
}

func TestIntakeRejectsInvalidInput(t *testing.T) {
	testCases := []struct {
		testName string
		prefix   []string
		input    string
		step     Step
		reply    string
	}{
		{testName: "Should reject a duplicate id", input: "taken", step: StepAskID, reply: msgDuplicateID},
		{testName: "Should reject a blank id", input: "   ", step: StepAskID, reply: msgInvalidID},
		{testName: "Should reject an id with spaces", input: "pedido 1", step: StepAskID, reply: msgIDWithSpaces},
		{testName: "Should reject a short document number", prefix: []string{"A1"}, input: "123", step: StepAskDocumentNumber, reply: msgInvalidDocument},
		{testName: "Should reject a short name", prefix: []string{"A1", "pular"}, input: "Al", step: StepAskName, reply: msgShortName},
		{testName: "Should reject a short product", prefix: []string{"A1", "pular", "Maria"}, input: " x ", step: StepAskProduct, reply: msgShortProduct},
		{testName: "Should reject a negative value", prefix: []string{"A1", "pular", "Maria", "Bolsa"}, input: "-5", step: StepAskValue, reply: msgInvalidValue},
		{testName: "Should reject text as value", prefix: []string{"A1", "pular", "Maria", "Bolsa"}, input: "cem", step: StepAskValue, reply: msgInvalidValue},
		{testName: "Should reject a malformed discount", prefix: []string{"A1", "pular", "Maria", "Bolsa", "100"}, input: "abc", step: StepAskDiscount, reply: msgInvalidDiscount},
		{testName: "Should reject a discount above the value", prefix: []string{"A1", "pular", "Maria", "Bolsa", "100"}, input: "150", step: StepAskDiscount, reply: msgDiscountTooLarge},
		{testName: "Should reject an impossible date", prefix: []string{"A1", "pular", "Maria", "Bolsa", "100", "0", "pular"}, input: "31/02/2024 10:00:00", step: StepAskDate, reply: msgInvalidDate},
		{testName: "Should re-prompt on an unclear confirmation", prefix: []string{"A1", "pular", "Maria", "Bolsa", "100", "0", "pular", "agora"}, input: "talvez", step: StepConfirm, reply: promptConfirm},
	}

	for _, tc := range testCases {
		t.Run(tc.testName, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			store := mock_models.NewMockOrderService(ctrl)
			store.EXPECT().GetOrderByID(gomock.Any(), "taken").Return(&models.Order{ID: "taken"}).AnyTimes()
			store.EXPECT().GetOrderByID(gomock.Any(), "A1").Return(nil).AnyTimes()

			intake := newTestIntake(store)
			intake.Begin(testKey)
			feed(t, intake, tc.prefix...)

			outcome := feed(t, intake, tc.input)
			assert.Equal(t, tc.step, outcome.Step)
			assert.Equal(t, []string{tc.reply}, outcome.Replies)
			assert.Equal(t, tc.step, currentStep(t, intake))
		})
	}
}

func TestIntakeDiscountAboveValueKeepsDraft(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mock_models.NewMockOrderService(ctrl)
	store.EXPECT().GetOrderByID(gomock.Any(), "A1").Return(nil)

	intake := newTestIntake(store)
	intake.Begin(testKey)
	feed(t, intake, "A1", "pular", "Maria Silva", "Bolsa", "100.00")

	outcome := feed(t, intake, "150.00")
	assert.Equal(t, StepAskDiscount, outcome.Step)

	state, ok := intake.sessions.Fetch(testKey)
	require.True(t, ok)
	assert.Equal(t, "100.00", state.Draft.Value.StringFixed(2))
	assert.True(t, state.Draft.Discount.IsZero())

	outcome = feed(t, intake, "100.00")
	assert.Equal(t, StepAskTransactionID, outcome.Step)
}

func TestIntakeCancelNeverPersists(t *testing.T) {
	inputs := []string{"A1", "pular", "Maria Silva", "Bolsa", "100", "5", "pular", "agora"}

	for steps := 0; steps <= len(inputs); steps++ {
		t.Run(fmt.Sprintf("Should cancel after %d answers", steps), func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			// CreateOrder has no expectation: any call fails the test.
			store := mock_models.NewMockOrderService(ctrl)
			store.EXPECT().GetOrderByID(gomock.Any(), "A1").Return(nil).AnyTimes()

			intake := newTestIntake(store)
			intake.Begin(testKey)
			feed(t, intake, inputs[:steps]...)

			outcome := feed(t, intake, "Cancelar")
			assert.Equal(t, StepCancelled, outcome.Step)
			assert.Equal(t, []string{MsgCancelled}, outcome.Replies)
			assert.False(t, intake.Active(testKey))

			assert.False(t, intake.Cancel(testKey))
		})
	}
}

func TestIntakeDeclineAtConfirmation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mock_models.NewMockOrderService(ctrl)
	store.EXPECT().GetOrderByID(gomock.Any(), "A1").Return(nil)

	intake := newTestIntake(store)
	intake.Begin(testKey)
	feed(t, intake, "A1", "pular", "Maria Silva", "Bolsa", "100", "0", "pular", "agora")

	outcome := feed(t, intake, "não")
	assert.Equal(t, StepCancelled, outcome.Step)
	assert.False(t, intake.Active(testKey))
}

func TestIntakeRetriesAfterSaveFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mock_models.NewMockOrderService(ctrl)
	store.EXPECT().GetOrderByID(gomock.Any(), "A1").Return(nil)
	gomock.InOrder(
		store.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(false),
		store.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(true),
	)

	intake := newTestIntake(store)
	intake.Begin(testKey)
	feed(t, intake, "A1", "pular", "Maria Silva", "Bolsa", "100", "0", "pular", "agora")

	outcome := feed(t, intake, "sim")
	assert.Equal(t, StepConfirm, outcome.Step)
	assert.Equal(t, []string{msgSaveFailed}, outcome.Replies)

	state, ok := intake.sessions.Fetch(testKey)
	require.True(t, ok)
	assert.Equal(t, "A1", state.Draft.ID)
	assert.Equal(t, "Maria Silva", state.Draft.Name)

	outcome = feed(t, intake, "sim")
	assert.Equal(t, StepCommitted, outcome.Step)
}

func TestIntakeWithoutSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	intake := newTestIntake(mock_models.NewMockOrderService(ctrl))

	_, ok := intake.Handle(context.Background(), testKey, "A1")
	assert.False(t, ok)
	assert.False(t, intake.Cancel(testKey))
}

func TestIntakeSessionsAreIndependent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mock_models.NewMockOrderService(ctrl)
	store.EXPECT().GetOrderByID(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	intake := newTestIntake(store)
	other := SessionKey{ChatID: 200, UserID: 42}

	intake.Begin(testKey)
	intake.Begin(other)

	feed(t, intake, "A1", "pular")

	state, ok := intake.sessions.Fetch(other)
	require.True(t, ok)
	assert.Equal(t, StepAskID, state.Step)
	assert.Empty(t, state.Draft.ID)

	assert.Equal(t, StepAskName, currentStep(t, intake))
	assert.Equal(t, 2, intake.sessions.Len())
}

func TestBeginRestartsSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mock_models.NewMockOrderService(ctrl)
	store.EXPECT().GetOrderByID(gomock.Any(), "A1").Return(nil)

	intake := newTestIntake(store)
	intake.Begin(testKey)
	feed(t, intake, "A1", "pular")

	intake.Begin(testKey)
	assert.Equal(t, StepAskID, currentStep(t, intake))
	assert.Equal(t, 1, intake.sessions.Len())
}

func TestStepString(t *testing.T) {
	assert.Equal(t, "ASK_CPF", StepAskDocumentNumber.String())
	assert.Equal(t, "CONFIRM", StepConfirm.String())
	assert.Equal(t, "UNKNOWN", Step(99).String())
	assert.True(t, StepCancelled.Terminal())
	assert.False(t, StepConfirm.Terminal())
}
