// Package bot implements the chat command surface of the order bot and its
// Telegram transport.
package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Yvann20/Flask/internal/conversation"
	"github.com/Yvann20/Flask/internal/logger"
	"github.com/Yvann20/Flask/internal/metrics"
	"github.com/Yvann20/Flask/internal/models"
	"go.uber.org/zap"
)

const (
	callbackPDF           = "pdf"
	callbackMarkDelivered = "markdel"

	// Telegram rejects buttons whose callback data exceeds 64 bytes.
	maxCallbackDataBytes = 64
)

// Handler turns chat updates into replies. It keeps no state of its own;
// in-progress registrations live in the Intake.
type Handler struct {
	adminID  int64
	orders   models.OrderService
	receipts models.ReceiptService
	tokens   models.JWTService
	intake   *conversation.Intake
	metrics  *metrics.Registry
}

func NewHandler(
	adminID int64,
	orders models.OrderService,
	receipts models.ReceiptService,
	tokens models.JWTService,
	intake *conversation.Intake,
	reg *metrics.Registry,
) *Handler {
	return &Handler{
		adminID:  adminID,
		orders:   orders,
		receipts: receipts,
		tokens:   tokens,
		intake:   intake,
		metrics:  reg,
	}
}

func (h *Handler) isAdmin(userID int64) bool {
	return userID == h.adminID
}

// Handle processes one update and returns the replies to send, in order.
func (h *Handler) Handle(ctx context.Context, in Incoming) []Reply {
	logger.Log.Debug("update received",
		zap.Int64("chatID", in.ChatID),
		zap.Int64("userID", in.UserID),
		zap.Bool("callback", in.IsCallback()),
	)

	if in.IsCallback() {
		return h.handleCallback(ctx, in)
	}

	command, args, ok := parseCommand(in.Text)
	if !ok {
		return h.handleText(ctx, in)
	}

	switch command {
	case "start", "help":
		h.count("start")
		return []Reply{markdown(msgWelcome)}
	case "add_pedido":
		h.count(command)
		return h.addOrder(in)
	case "cancel":
		h.count(command)
		h.intake.Cancel(h.sessionKey(in))
		return []Reply{message(conversation.MsgCancelled)}
	case "buscar":
		h.count(command)
		return h.search(ctx, in, args)
	case "listar":
		h.count(command)
		return h.listRecent(ctx)
	case "pdf":
		h.count(command)
		return h.receipt(ctx, args)
	case "status":
		h.count(command)
		return h.updateStatus(ctx, in, args)
	case "token":
		h.count(command)
		return h.issueToken(in)
	}

	h.count("unknown")
	return []Reply{message(msgUnknownCommand)}
}

func (h *Handler) count(command string) {
	h.metrics.Commands.WithLabelValues(command).Inc()
}

func (h *Handler) sessionKey(in Incoming) conversation.SessionKey {
	return conversation.SessionKey{ChatID: in.ChatID, UserID: in.UserID}
}

func (h *Handler) handleText(ctx context.Context, in Incoming) []Reply {
	outcome, ok := h.intake.Handle(ctx, h.sessionKey(in), in.Text)
	if !ok {
		return nil
	}

	replies := make([]Reply, len(outcome.Replies))
	for i, text := range outcome.Replies {
		replies[i] = message(text)
	}
	return replies
}

func (h *Handler) addOrder(in Incoming) []Reply {
	if !h.isAdmin(in.UserID) {
		logger.Log.Info("non-admin tried to add an order", zap.Int64("userID", in.UserID))
		return []Reply{message(msgAccessDenied)}
	}

	return []Reply{message(h.intake.Begin(h.sessionKey(in)))}
}

func (h *Handler) search(ctx context.Context, in Incoming, args []string) []Reply {
	term := strings.Join(args, " ")
	if strings.TrimSpace(term) == "" {
		return []Reply{markdown(msgSearchUsage)}
	}

	found := h.orders.SearchOrders(ctx, term, models.DefaultSearchLimit)
	if len(found) == 0 {
		return []Reply{message(msgNoResults)}
	}

	replies := []Reply{markdown(fmt.Sprintf(msgFound, len(found)))}
	for _, order := range found {
		replies = append(replies, Reply{
			Kind:     ReplyMessage,
			Text:     orderCard(order),
			Keyboard: h.cardKeyboard(order, in.UserID),
		})
	}
	return replies
}

// cardKeyboard returns the buttons of a search result. Buttons whose callback
// data would not fit are left out; the card still names the id for /pdf.
func (h *Handler) cardKeyboard(order models.Order, viewer int64) [][]Button {
	var keyboard [][]Button
	if data, ok := callbackData(callbackPDF, order.ID); ok {
		keyboard = append(keyboard, []Button{{Text: msgButtonPDF, Data: data}})
	}
	if h.isAdmin(viewer) && order.Status != models.StatusDelivered {
		if data, ok := callbackData(callbackMarkDelivered, order.ID); ok {
			keyboard = append(keyboard, []Button{{Text: msgButtonMarkDelivered, Data: data}})
		}
	}
	if len(keyboard) < 1 {
		logger.Log.Debug("order id too long for card buttons", zap.String("orderID", order.ID))
	}
	return keyboard
}

func callbackData(action, orderID string) (string, bool) {
	data := action + "|" + orderID
	return data, len(data) <= maxCallbackDataBytes
}

func (h *Handler) listRecent(ctx context.Context) []Reply {
	recent := h.orders.ListRecent(ctx, models.DefaultRecentLimit)
	if len(recent) == 0 {
		return []Reply{message(msgNoOrders)}
	}

	var b strings.Builder
	fmt.Fprintf(&b, msgRecentHeader, len(recent))
	for _, order := range recent {
		fmt.Fprintf(&b, "• ID: %s\n", order.ID)
		fmt.Fprintf(&b, "  Nome: %s\n", order.Name)
		fmt.Fprintf(&b, "  Valor: %s\n", models.FormatMoney(order.FinalValue()))
		fmt.Fprintf(&b, "  Status: %s\n", strings.ToUpper(string(order.Status)))
		fmt.Fprintf(&b, "  Data: %s\n\n", order.CreatedAt.Display())
	}

	return []Reply{message(strings.TrimRight(b.String(), "\n"))}
}

func (h *Handler) receipt(ctx context.Context, args []string) []Reply {
	if len(args) == 0 {
		return []Reply{markdown(msgPDFUsage)}
	}

	order := h.orders.GetOrderByID(ctx, args[0])
	if order == nil {
		return []Reply{message(msgOrderNotFound)}
	}

	document, ok := h.render(*order)
	if !ok {
		return []Reply{message(msgPDFFailed)}
	}

	return []Reply{message(msgGeneratingPDF), document}
}

// render produces the receipt attachment for order.
func (h *Handler) render(order models.Order) (Reply, bool) {
	content, err := h.receipts.Render(order)
	if err != nil {
		logger.Log.Error("failed to render receipt", zap.String("orderID", order.ID), zap.Error(err))
		return Reply{}, false
	}

	logger.Log.Info("receipt generated", zap.String("orderID", order.ID))

	return Reply{
		Kind:     ReplyDocument,
		Document: content,
		FileName: h.receipts.FileName(order),
		Text:     fmt.Sprintf(msgPDFCaption, order.ID),
	}, true
}

func (h *Handler) updateStatus(ctx context.Context, in Incoming, args []string) []Reply {
	if !h.isAdmin(in.UserID) {
		return []Reply{message(msgAdminOnly)}
	}
	if len(args) != 2 {
		return []Reply{message(msgStatusUsage)}
	}

	status, ok := models.ParseOrderStatus(args[1])
	if !ok {
		return []Reply{message(msgStatusUsage)}
	}

	if !h.orders.UpdateOrderStatus(ctx, args[0], status) {
		return []Reply{message(msgStatusFailed)}
	}

	return []Reply{message(fmt.Sprintf(msgStatusUpdated, args[0], strings.ToUpper(string(status))))}
}

func (h *Handler) issueToken(in Incoming) []Reply {
	if !h.isAdmin(in.UserID) {
		return []Reply{message(msgAdminOnly)}
	}

	token, err := h.tokens.GenerateJWT(strconv.FormatInt(h.adminID, 10))
	if err != nil {
		logger.Log.Error("failed to issue api token", zap.Error(err))
		return []Reply{message(msgTokenFailed)}
	}

	return []Reply{message(fmt.Sprintf(msgTokenIssued, token))}
}

func (h *Handler) handleCallback(ctx context.Context, in Incoming) []Reply {
	action, orderID, found := strings.Cut(in.CallbackData, "|")
	if !found || orderID == "" {
		return []Reply{answer(in.CallbackID, "", false)}
	}

	switch action {
	case callbackPDF:
		h.count("callback_pdf")

		order := h.orders.GetOrderByID(ctx, orderID)
		if order == nil {
			return []Reply{answer(in.CallbackID, "", false), edit(in.MessageID, msgOrderNotFound)}
		}

		document, ok := h.render(*order)
		if !ok {
			return []Reply{answer(in.CallbackID, "", false), edit(in.MessageID, msgPDFFailed)}
		}

		return []Reply{
			answer(in.CallbackID, "", false),
			document,
			edit(in.MessageID, in.Text+"\n\n"+msgPDFSent),
		}

	case callbackMarkDelivered:
		h.count("callback_markdel")

		if !h.isAdmin(in.UserID) {
			return []Reply{answer(in.CallbackID, msgAdminOnly, true)}
		}

		if !h.orders.UpdateOrderStatus(ctx, orderID, models.StatusDelivered) {
			return []Reply{answer(in.CallbackID, "", false), edit(in.MessageID, msgStatusFailed)}
		}

		text := msgMarkedDelivered
		if order := h.orders.GetOrderByID(ctx, orderID); order != nil {
			text = orderCard(*order) + "\n\n" + msgMarkedDelivered
		}
		return []Reply{answer(in.CallbackID, "", false), edit(in.MessageID, text)}
	}

	return []Reply{answer(in.CallbackID, "", false)}
}

func orderCard(order models.Order) string {
	var b strings.Builder

	fmt.Fprintf(&b, "ID: %s\n", order.ID)
	fmt.Fprintf(&b, "Nome: %s\n", order.Name)
	fmt.Fprintf(&b, "CPF: %s\n", models.FormatDocumentNumber(order.DocumentNumber))
	fmt.Fprintf(&b, "Produto: %s\n", order.Product)
	fmt.Fprintf(&b, "Valor: %s\n", models.FormatMoney(order.Value))
	fmt.Fprintf(&b, "Desconto: %s\n", models.FormatMoney(order.Discount))
	fmt.Fprintf(&b, "Valor Final: %s\n", models.FormatMoney(order.FinalValue()))
	fmt.Fprintf(&b, "Status: %s\n", strings.ToUpper(string(order.Status)))
	fmt.Fprintf(&b, "Data: %s", order.CreatedAt.Display())

	return b.String()
}

// parseCommand splits "/buscar@SomeBot João Silva" into "buscar" and its
// arguments. ok is false for plain text.
func parseCommand(text string) (command string, args []string, ok bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil, false
	}

	command = strings.TrimPrefix(fields[0], "/")
	command, _, _ = strings.Cut(command, "@")
	if command == "" {
		return "", nil, false
	}

	return strings.ToLower(command), fields[1:], true
}
