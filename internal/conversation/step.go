package conversation

// Step is a state of the intake conversation.
type Step int

const (
	StepAskID Step = iota
	StepAskDocumentNumber
	StepAskName
	StepAskProduct
	StepAskValue
	StepAskDiscount
	StepAskTransactionID
	StepAskDate
	StepConfirm
	StepCommitted
	StepCancelled
)

var stepNames = map[Step]string{
	StepAskID:             "ASK_ID",
	StepAskDocumentNumber: "ASK_CPF",
	StepAskName:           "ASK_NAME",
	StepAskProduct:        "ASK_PRODUCT",
	StepAskValue:          "ASK_VALUE",
	StepAskDiscount:       "ASK_DISCOUNT",
	StepAskTransactionID:  "ASK_TRANS_ID",
	StepAskDate:           "ASK_DATE",
	StepConfirm:           "CONFIRM",
	StepCommitted:         "COMMITTED",
	StepCancelled:         "CANCELLED",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// Terminal reports whether the conversation is over.
func (s Step) Terminal() bool {
	return s == StepCommitted || s == StepCancelled
}
