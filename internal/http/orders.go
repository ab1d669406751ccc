package router

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Yvann20/Flask/internal/logger"
	"github.com/Yvann20/Flask/internal/middlewares"
	"github.com/Yvann20/Flask/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// GetOrders searches orders when q is given and lists the latest ones
// otherwise. An empty result is answered with 204.
func GetOrders(w http.ResponseWriter, r *http.Request) {
	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)
	if orderService == nil {
		return
	}

	query := r.URL.Query()
	term := query.Get("q")

	limit := models.DefaultRecentLimit
	if term != "" {
		limit = models.DefaultSearchLimit
	}

	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "Parâmetro limit inválido", http.StatusBadRequest)
			return
		}
		if parsed < limit {
			limit = parsed
		}
	}

	var orders []models.Order
	if term != "" {
		orders = (*orderService).SearchOrders(r.Context(), term, limit)
	} else {
		orders = (*orderService).ListRecent(r.Context(), limit)
	}

	if len(orders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	middlewares.EncodeJSONResponse(w, orders)
}

func GetOrder(w http.ResponseWriter, r *http.Request) {
	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)
	if orderService == nil {
		return
	}

	order := (*orderService).GetOrderByID(r.Context(), chi.URLParam(r, "id"))
	if order == nil {
		http.Error(w, "Pedido não encontrado", http.StatusNotFound)
		return
	}

	middlewares.EncodeJSONResponse(w, order)
}

// GetReceipt streams the PDF receipt of an order.
func GetReceipt(w http.ResponseWriter, r *http.Request) {
	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)
	receiptService := middlewares.GetServiceFromContext[models.ReceiptService](w, r, middlewares.ReceiptServiceKey)
	if orderService == nil || receiptService == nil {
		return
	}

	order := (*orderService).GetOrderByID(r.Context(), chi.URLParam(r, "id"))
	if order == nil {
		http.Error(w, "Pedido não encontrado", http.StatusNotFound)
		return
	}

	content, err := (*receiptService).Render(*order)
	if err != nil {
		http.Error(w, fmt.Sprintf("Erro ao gerar PDF: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", (*receiptService).FileName(*order)))
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

func UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	update := middlewares.GetParsedJSONData[models.StatusUpdate](w, r)
	if update.Status == nil {
		http.Error(w, "Requisição sem o campo status", http.StatusBadRequest)
		return
	}

	status, ok := models.ParseOrderStatus(*update.Status)
	if !ok {
		http.Error(w, fmt.Sprintf("Status desconhecido: %s", *update.Status), http.StatusBadRequest)
		return
	}

	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)
	if orderService == nil {
		return
	}

	orderID := chi.URLParam(r, "id")
	actor, _ := middlewares.GetSubjectFromContext(r)

	// false covers both an unknown order and a store fault; the service logs which.
	if !(*orderService).UpdateOrderStatus(r.Context(), orderID, status) {
		http.Error(w, "Não foi possível atualizar o status do pedido", http.StatusUnprocessableEntity)
		return
	}

	logger.Log.Info("order status changed through api",
		zap.String("orderID", orderID),
		zap.String("status", string(status)),
		zap.String("actor", actor),
	)

	w.WriteHeader(http.StatusNoContent)
}
