package inbound

import (
	"github.com/shandysiswandi/otpgate/internal/order/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

type HTTPEndpoint struct {
	uc uc
}

// CreateOrder
// @Summary Create order
// @Tags Order
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateOrderRequest true "Order payload"
// @Success 200 {object} router.successResponse{data=OrderResponse} "Order created"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/orders [post]
func (h *HTTPEndpoint) CreateOrder(r *router.Request) (any, error) {
	var req CreateOrderRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	o, err := h.uc.CreateOrder(r.Context(), usecase.CreateOrderInput{
		TotalAmount: req.TotalAmount,
		Currency:    req.Currency,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return nil, err
	}

	return orderResponse(o), nil
}

// GetOrder
// @Summary Get order
// @Tags Order
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} router.successResponse{data=OrderResponse}
// @Failure 404 {object} router.errorResponse "Order not found"
// @Router /api/v1/orders/{id} [get]
func (h *HTTPEndpoint) GetOrder(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	o, err := h.uc.GetOrder(r.Context(), id)
	if err != nil {
		return nil, err
	}

	return orderResponse(o), nil
}

// ListOrders
// @Summary List orders
// @Description Returns the caller's orders, newest first.
// @Tags Order
// @Produce json
// @Security BearerAuth
// @Param size query int false "Pagination size"
// @Param page query int false "Pagination page"
// @Success 200 {object} router.successResponse{data=OrdersResponse}
// @Failure 400 {object} router.errorResponse "Invalid query parameters"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Router /api/v1/orders [get]
func (h *HTTPEndpoint) ListOrders(r *router.Request) (any, error) {
	size, err := r.GetQueryInt32("size")
	if err != nil {
		return nil, err
	}

	page, err := r.GetQueryInt32("page")
	if err != nil {
		return nil, err
	}

	out, err := h.uc.ListOrders(r.Context(), usecase.ListOrdersInput{Page: page, Size: size})
	if err != nil {
		return nil, err
	}

	orders := make([]OrderResponse, 0, len(out.Orders))
	for i := range out.Orders {
		orders = append(orders, orderResponse(&out.Orders[i]))
	}

	return OrdersResponse{
		Page:   out.Page,
		Size:   out.Size,
		Total:  out.Total,
		Orders: orders,
	}, nil
}

// CancelOrder
// @Summary Cancel order
// @Tags Order
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} router.successResponse{data=CancelOrderResponse}
// @Failure 404 {object} router.errorResponse "Order not found"
// @Failure 409 {object} router.errorResponse "Order can no longer be cancelled"
// @Router /api/v1/orders/{id}/cancel [post]
func (h *HTTPEndpoint) CancelOrder(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	o, err := h.uc.CancelOrder(r.Context(), id)
	if err != nil {
		return nil, err
	}

	return CancelOrderResponse(orderResponse(o)), nil
}

// RequestConfirmation mails an order confirmation code to the caller.
// @Summary Request order confirmation code
// @Tags Order, Confirmation
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} router.successResponse{data=ConfirmationResponse} "Challenge issued"
// @Failure 404 {object} router.errorResponse "Order not found"
// @Failure 409 {object} router.errorResponse "Order is not pending"
// @Failure 429 {object} router.errorResponse "Cooldown active"
// @Failure 503 {object} router.errorResponse "Code delivery failed"
// @Router /api/v1/orders/{id}/confirmation [post]
func (h *HTTPEndpoint) RequestConfirmation(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.RequestConfirmation(r.Context(), id)
	if err != nil {
		return nil, err
	}

	return ConfirmationResponse{ChallengeRef: resp.ChallengeRef, ExpiresAt: resp.ExpiresAt}, nil
}

// VerifyConfirmation
// @Summary Verify order confirmation code
// @Tags Order, Confirmation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Param request body VerifyConfirmationRequest true "Verification payload"
// @Success 200 {object} router.successResponse{data=VerifyConfirmationResponse} "Order confirmed"
// @Failure 401 {object} router.errorResponse "Invalid code"
// @Failure 403 {object} router.errorResponse "Attempts exhausted"
// @Failure 404 {object} router.errorResponse "No active code"
// @Failure 409 {object} router.errorResponse "Order already confirmed"
// @Failure 410 {object} router.errorResponse "Code expired"
// @Router /api/v1/orders/{id}/confirmation/verify [post]
func (h *HTTPEndpoint) VerifyConfirmation(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	var req VerifyConfirmationRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyConfirmation(r.Context(), usecase.VerifyConfirmationInput{
		OrderID:      id,
		Code:         req.Code,
		ChallengeRef: req.ChallengeRef,
	})
	if err != nil {
		return nil, err
	}

	return VerifyConfirmationResponse{
		OrderID:           resp.OrderID,
		Status:            resp.Status,
		ConfirmedAt:       resp.ConfirmedAt,
		EstimatedDelivery: resp.EstimatedDelivery,
	}, nil
}

// ResendConfirmation
// @Summary Resend order confirmation code
// @Tags Order, Confirmation
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} router.successResponse{data=ConfirmationResponse} "Challenge reissued"
// @Failure 409 {object} router.errorResponse "Order is not pending"
// @Failure 429 {object} router.errorResponse "Cooldown active"
// @Router /api/v1/orders/{id}/confirmation/resend [post]
func (h *HTTPEndpoint) ResendConfirmation(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.ResendConfirmation(r.Context(), id)
	if err != nil {
		return nil, err
	}

	return ConfirmationResponse{ChallengeRef: resp.ChallengeRef, ExpiresAt: resp.ExpiresAt}, nil
}
