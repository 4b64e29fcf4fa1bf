package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"shopify-tally-integration/internal/client"
	"shopify-tally-integration/internal/config"
	"shopify-tally-integration/internal/dto"
	"shopify-tally-integration/internal/logger"
	"shopify-tally-integration/internal/metrics"
	"shopify-tally-integration/internal/model"
	"shopify-tally-integration/internal/repository"
	"shopify-tally-integration/internal/transform"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

const (
	HeaderWebhookHMAC  = "X-Shopify-Hmac-Sha256"
	HeaderWebhookTopic = "X-Shopify-Topic"
	HeaderWebhookID    = "X-Shopify-Webhook-Id"
)

type OrderService interface {
	HandleWebhook(ctx context.Context, headers http.Header, body []byte) error
	Ingest(ctx context.Context, raw []byte) (*model.Order, error)
	ListVouchers(ctx context.Context, from, to string) ([]*dto.Voucher, error)
	SyncRange(ctx context.Context, from, to string) (*dto.SyncResponse, error)
	SyncYesterday(ctx context.Context) (*dto.SyncResponse, error)
	Reclassify(ctx context.Context, shopifyOrderID string, refresh bool) (*dto.OverrideResponse, error)
	ReclassifyPending(ctx context.Context, refresh bool) (*dto.ReclassifyResponse, error)
	Override(ctx context.Context, o dto.ClassificationOverride) (*dto.OverrideResponse, error)
	OverrideBatch(ctx context.Context, req dto.BatchOverrideRequest) (*dto.BatchOverrideResponse, error)
}

type orderServiceImpl struct {
	shopifyCfg       *config.Shopify
	shopifyClient    client.ShopifyClient
	normalizer       *transform.Normalizer
	orderRepo        repository.OrderRepository
	webhookEventRepo repository.WebhookEventRepository
	metrics          *metrics.Registry
	location         *time.Location
	now              func() time.Time
}

func NewOrderService(
	cfg *config.Config,
	shopifyClient client.ShopifyClient,
	orderRepo repository.OrderRepository,
	webhookEventRepo repository.WebhookEventRepository,
	m *metrics.Registry,
) OrderService {
	// config.Validate rejects unknown zones; UTC covers a Config built by hand.
	loc, err := time.LoadLocation(cfg.Tally.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return &orderServiceImpl{
		shopifyCfg:       &cfg.Shopify,
		shopifyClient:    shopifyClient,
		normalizer:       transform.NewNormalizer(cfg.Tally),
		orderRepo:        orderRepo,
		webhookEventRepo: webhookEventRepo,
		metrics:          m,
		location:         loc,
		now:              time.Now,
	}
}

// HandleWebhook verifies and ingests one order webhook delivery. A delivery
// already processed under the same webhook id is acknowledged and skipped.
func (s *orderServiceImpl) HandleWebhook(ctx context.Context, headers http.Header, body []byte) error {
	topic := headers.Get(HeaderWebhookTopic)
	if topic == "" {
		topic = "orders/unknown"
	}
	log := logger.FromContext(ctx).With(zap.String("topic", topic))

	if s.shopifyCfg.WebhookSecret != "" && !VerifyWebhookHMAC(body, headers.Get(HeaderWebhookHMAC), s.shopifyCfg.WebhookSecret) {
		s.metrics.WebhooksReceived.WithLabelValues(topic, "rejected").Inc()
		return ErrInvalidSignature
	}

	eventID := headers.Get(HeaderWebhookID)
	if eventID != "" {
		seen, err := s.webhookEventRepo.Exists(ctx, eventID)
		if err != nil {
			log.Warn("webhook dedupe lookup failed", zap.Error(err))
		} else if seen {
			log.Info("duplicate webhook skipped", zap.String("webhook_id", eventID))
			s.metrics.WebhooksReceived.WithLabelValues(topic, "duplicate").Inc()
			return nil
		}
	}

	order, err := s.Ingest(ctx, body)
	orderID := ""
	if order != nil {
		orderID = order.ShopifyOrderID
	}
	if err != nil {
		s.metrics.WebhooksReceived.WithLabelValues(topic, "failed").Inc()
		if eventID != "" {
			if markErr := s.webhookEventRepo.MarkFailed(ctx, eventID, topic, orderID, err); markErr != nil {
				log.Warn("record failed webhook", zap.Error(markErr))
			}
		}
		return fmt.Errorf("ingest webhook order: %w", err)
	}

	s.metrics.WebhooksReceived.WithLabelValues(topic, "processed").Inc()
	if eventID != "" {
		if err := s.webhookEventRepo.MarkProcessed(ctx, eventID, topic, orderID); err != nil {
			log.Warn("record processed webhook", zap.Error(err))
		}
	}
	return nil
}

// VerifyWebhookHMAC checks the base64 sha256 hmac Shopify sends with every
// webhook delivery.
func VerifyWebhookHMAC(body []byte, given, secret string) bool {
	sum, err := base64.StdEncoding.DecodeString(given)
	if err != nil || len(sum) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(sum, mac.Sum(nil))
}

// Ingest normalizes a raw order document and replaces the stored order and
// items keyed by its Shopify id. Manual overrides already stored are kept.
func (s *orderServiceImpl) Ingest(ctx context.Context, raw []byte) (*model.Order, error) {
	log := logger.FromContext(ctx)

	doc, err := model.ParseShopifyOrder(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: decode order: %v", ErrInvalidRequest, err)
	}
	if doc.ID == "" {
		return nil, fmt.Errorf("%w: order id is missing", ErrInvalidRequest)
	}

	s.enrichCustomer(ctx, doc)

	order, items := s.normalizer.Normalize(doc, raw)

	keepOverrides := func(order, stored *model.Order) {
		order.ManualPayment = stored.ManualPayment
		order.ManualChannel = stored.ManualChannel
		s.normalizer.RefreshVoucherType(order)
	}
	if err := s.orderRepo.ReplaceWithItems(ctx, order, items, keepOverrides); err != nil {
		return order, fmt.Errorf("store order: %w", err)
	}
	s.metrics.OrdersIngested.Inc()

	log.Info("order ingested",
		zap.String("shopify_order_id", order.ShopifyOrderID),
		zap.String("order_number", order.OrderNumber),
		zap.String("voucher_type", order.VoucherType),
		zap.Int("items", len(items)),
	)
	return order, nil
}

// enrichCustomer fetches the customer when the order carries only its id.
// Failure leaves the document as it was.
func (s *orderServiceImpl) enrichCustomer(ctx context.Context, doc *model.ShopifyOrder) {
	if doc.Customer == nil || doc.Customer.ID == "" || doc.Customer.HasIdentity() || !s.shopifyCfg.Configured() {
		return
	}
	customer, err := s.shopifyClient.GetCustomer(ctx, doc.Customer.ID.String())
	if err != nil {
		logger.FromContext(ctx).Warn("customer enrichment failed",
			zap.String("customer_id", doc.Customer.ID.String()),
			zap.Error(err),
		)
		return
	}
	doc.Customer = customer
}

func parseRange(from, to string) error {
	fromDate, err := time.Parse(time.DateOnly, from)
	if err != nil {
		return fmt.Errorf("%w: from_date must be YYYY-MM-DD", ErrInvalidRequest)
	}
	toDate, err := time.Parse(time.DateOnly, to)
	if err != nil {
		return fmt.Errorf("%w: to_date must be YYYY-MM-DD", ErrInvalidRequest)
	}
	if toDate.Before(fromDate) {
		return fmt.Errorf("%w: from_date is after to_date", ErrInvalidRequest)
	}
	return nil
}

// ListVouchers projects every stored order dated within [from, to].
func (s *orderServiceImpl) ListVouchers(ctx context.Context, from, to string) ([]*dto.Voucher, error) {
	if err := parseRange(from, to); err != nil {
		return nil, err
	}

	orders, err := s.orderRepo.ListByDateRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	vouchers := make([]*dto.Voucher, len(orders))
	for i, order := range orders {
		vouchers[i] = transform.BuildVoucher(order)
	}
	s.metrics.VouchersServed.Add(float64(len(vouchers)))
	return vouchers, nil
}

// SyncRange pulls one page of orders created within the range and ingests
// each of them. Orders that fail are listed and do not stop the run.
func (s *orderServiceImpl) SyncRange(ctx context.Context, from, to string) (*dto.SyncResponse, error) {
	if err := parseRange(from, to); err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx)

	raws, err := s.shopifyClient.ListOrders(ctx, client.ListOrdersParams{
		Status:       "any",
		CreatedAtMin: from + "T00:00:00",
		CreatedAtMax: to + "T23:59:59",
		Limit:        s.shopifyCfg.PageLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("list shopify orders: %w", err)
	}

	resp := &dto.SyncResponse{
		FromDate: from,
		ToDate:   to,
		Fetched:  len(raws),
		Failed:   []string{},
	}
	for _, raw := range raws {
		if _, err := s.Ingest(ctx, raw); err != nil {
			id := peekOrderID(raw)
			log.Warn("sync ingest failed", zap.String("shopify_order_id", id), zap.Error(err))
			resp.Failed = append(resp.Failed, id)
			continue
		}
		resp.Ingested++
	}

	log.Info("shopify sync finished",
		zap.String("from_date", from),
		zap.String("to_date", to),
		zap.Int("fetched", resp.Fetched),
		zap.Int("ingested", resp.Ingested),
	)
	return resp, nil
}

// SyncYesterday syncs the previous calendar day in the configured timezone.
func (s *orderServiceImpl) SyncYesterday(ctx context.Context) (*dto.SyncResponse, error) {
	day := s.now().In(s.location).AddDate(0, 0, -1).Format(time.DateOnly)
	return s.SyncRange(ctx, day, day)
}

func peekOrderID(raw []byte) string {
	var head struct {
		ID model.FlexID `json:"id"`
	}
	_ = json.Unmarshal(raw, &head)
	return head.ID.String()
}

// Reclassify re-derives payment and channel for one stored order, from the
// stored raw document or from a fresh copy fetched from Shopify.
func (s *orderServiceImpl) Reclassify(ctx context.Context, shopifyOrderID string, refresh bool) (*dto.OverrideResponse, error) {
	order, err := s.findOrder(ctx, shopifyOrderID, "")
	if err != nil {
		return nil, err
	}
	if _, err := s.reclassify(ctx, order, refresh); err != nil {
		return nil, err
	}
	return overrideResponse(order), nil
}

// ReclassifyPending re-evaluates every order still on the default channel.
func (s *orderServiceImpl) ReclassifyPending(ctx context.Context, refresh bool) (*dto.ReclassifyResponse, error) {
	orders, err := s.orderRepo.ListByChannel(ctx, s.normalizer.DefaultChannel())
	if err != nil {
		return nil, fmt.Errorf("list pending orders: %w", err)
	}

	resp := &dto.ReclassifyResponse{Changed: []*dto.OverrideResponse{}}
	for _, order := range orders {
		resp.Checked++
		changed, err := s.reclassify(ctx, order, refresh)
		if err != nil {
			logger.FromContext(ctx).Warn("reclassify failed",
				zap.String("shopify_order_id", order.ShopifyOrderID),
				zap.Error(err),
			)
			resp.Failed = append(resp.Failed, order.ShopifyOrderID)
			continue
		}
		if changed {
			resp.Changed = append(resp.Changed, overrideResponse(order))
		}
	}
	return resp, nil
}

func (s *orderServiceImpl) reclassify(ctx context.Context, order *model.Order, refresh bool) (bool, error) {
	raw := []byte(order.RawPayload)
	var fresh datatypes.JSON
	if refresh {
		fetched, err := s.shopifyClient.GetOrder(ctx, order.ShopifyOrderID)
		if err != nil {
			return false, fmt.Errorf("fetch shopify order: %w", err)
		}
		raw = fetched
		fresh = datatypes.JSON(fetched)
	}

	doc, err := model.ParseShopifyOrder(raw)
	if err != nil {
		return false, fmt.Errorf("%w: decode stored order: %v", ErrInvalidRequest, err)
	}

	before := order.VoucherType
	s.normalizer.ApplyClassification(order, s.normalizer.Classify(doc))

	err = s.orderRepo.UpdateClassification(ctx, order.ShopifyOrderID, repository.ClassificationUpdate{
		PaymentMethod:   order.PaymentMethod,
		DeliveryChannel: order.DeliveryChannel,
		VoucherType:     order.VoucherType,
		RawPayload:      fresh,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrOrderNotFound
		}
		return false, fmt.Errorf("update classification: %w", err)
	}

	changed := before != order.VoucherType
	if changed {
		s.metrics.Reclassified.Inc()
	}
	return changed, nil
}

// Override applies a manual payment or channel. Overrides survive later
// deliveries and reclassification.
func (s *orderServiceImpl) Override(ctx context.Context, o dto.ClassificationOverride) (*dto.OverrideResponse, error) {
	if o.PaymentMethod != "" && o.PaymentMethod != model.PaymentCOD && o.PaymentMethod != model.PaymentPrepaid {
		return nil, fmt.Errorf("%w: payment_method must be COD or Prepaid", ErrInvalidRequest)
	}
	if o.PaymentMethod == "" && o.DeliveryChannel == "" {
		return nil, fmt.Errorf("%w: delivery_channel or payment_method is required", ErrInvalidRequest)
	}

	order, err := s.findOrder(ctx, o.ShopifyOrderID, o.OrderNumber)
	if err != nil {
		return nil, err
	}

	if o.PaymentMethod != "" {
		order.ManualPayment = o.PaymentMethod
	}
	if o.DeliveryChannel != "" {
		order.ManualChannel = o.DeliveryChannel
	}
	s.normalizer.RefreshVoucherType(order)

	err = s.orderRepo.SetManualOverride(ctx, order.ShopifyOrderID, repository.ManualOverride{
		Payment:     order.ManualPayment,
		Channel:     order.ManualChannel,
		VoucherType: order.VoucherType,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("save override: %w", err)
	}

	logger.FromContext(ctx).Info("classification overridden",
		zap.String("shopify_order_id", order.ShopifyOrderID),
		zap.String("voucher_type", order.VoucherType),
	)
	return overrideResponse(order), nil
}

func (s *orderServiceImpl) OverrideBatch(ctx context.Context, req dto.BatchOverrideRequest) (*dto.BatchOverrideResponse, error) {
	resp := &dto.BatchOverrideResponse{
		Updated:  []*dto.OverrideResponse{},
		NotFound: []string{},
	}
	for _, o := range req.Overrides {
		updated, err := s.Override(ctx, o)
		if errors.Is(err, ErrOrderNotFound) {
			key := o.ShopifyOrderID
			if key == "" {
				key = o.OrderNumber
			}
			resp.NotFound = append(resp.NotFound, key)
			continue
		}
		if err != nil {
			return nil, err
		}
		resp.Updated = append(resp.Updated, updated)
	}
	return resp, nil
}

func (s *orderServiceImpl) findOrder(ctx context.Context, shopifyOrderID, orderNumber string) (*model.Order, error) {
	var (
		order *model.Order
		err   error
	)
	switch {
	case shopifyOrderID != "":
		order, err = s.orderRepo.FindByShopifyID(ctx, shopifyOrderID)
	case orderNumber != "":
		order, err = s.orderRepo.FindByOrderNumber(ctx, orderNumber)
	default:
		return nil, fmt.Errorf("%w: shopify_order_id or order_number is required", ErrInvalidRequest)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return order, nil
}

func overrideResponse(order *model.Order) *dto.OverrideResponse {
	return &dto.OverrideResponse{
		ShopifyOrderID:  order.ShopifyOrderID,
		OrderNumber:     order.OrderNumber,
		PaymentMethod:   order.EffectivePayment(),
		DeliveryChannel: order.EffectiveChannel(),
		VoucherType:     order.VoucherType,
	}
}
