package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shopify-tally-integration/internal/client"
	"shopify-tally-integration/internal/config"
	"shopify-tally-integration/internal/logger"
	"shopify-tally-integration/internal/repository"
)

var (
	ErrInvalidShop  = errors.New("invalid shop domain")
	ErrInvalidState = errors.New("oauth state mismatch")
	ErrInvalidHMAC  = errors.New("oauth callback hmac mismatch")
)

var shopDomainPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\-]*\.myshopify\.com$`)

type ShopService interface {
	InstallURL(ctx context.Context, shop string) (string, error)
	Callback(ctx context.Context, params url.Values) error
}

type shopServiceImpl struct {
	cfg           *config.Shopify
	shopifyClient client.ShopifyClient
	shopRepo      repository.ShopRepository
}

func NewShopService(
	cfg *config.Shopify,
	shopifyClient client.ShopifyClient,
	shopRepo repository.ShopRepository,
) ShopService {
	return &shopServiceImpl{
		cfg:           cfg,
		shopifyClient: shopifyClient,
		shopRepo:      shopRepo,
	}
}

func (s *shopServiceImpl) validShop(shop string) bool {
	return shop != "" && (shopDomainPattern.MatchString(shop) || shop == s.cfg.Store)
}

// InstallURL stores a fresh state nonce for shop and returns the authorize
// URL the merchant is redirected to.
func (s *shopServiceImpl) InstallURL(ctx context.Context, shop string) (string, error) {
	if !s.validShop(shop) {
		return "", fmt.Errorf("%w: %q", ErrInvalidShop, shop)
	}
	if s.cfg.ClientID == "" {
		return "", client.ErrShopifyNotConfigured
	}

	state := uuid.NewString()
	if err := s.shopRepo.SaveState(ctx, shop, state); err != nil {
		return "", fmt.Errorf("save oauth state: %w", err)
	}
	return s.shopifyClient.AuthorizeURL(shop, state), nil
}

// Callback checks the state nonce and hmac, exchanges the code and persists
// the resulting token. Tokens are never refreshed.
func (s *shopServiceImpl) Callback(ctx context.Context, params url.Values) error {
	shop := params.Get("shop")
	if !s.validShop(shop) {
		return fmt.Errorf("%w: %q", ErrInvalidShop, shop)
	}
	if params.Get("code") == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidRequest)
	}
	if s.cfg.ClientSecret != "" && !VerifyCallbackHMAC(params, s.cfg.ClientSecret) {
		return ErrInvalidHMAC
	}

	stored, err := s.shopRepo.Get(ctx, shop)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidState
		}
		return fmt.Errorf("get shop: %w", err)
	}
	if stored.State == "" || !hmac.Equal([]byte(stored.State), []byte(params.Get("state"))) {
		return ErrInvalidState
	}

	token, err := s.shopifyClient.ExchangeCode(ctx, shop, params.Get("code"))
	if err != nil {
		return fmt.Errorf("exchange oauth code: %w", err)
	}
	if err := s.shopRepo.SaveToken(ctx, shop, token.AccessToken, token.Scope); err != nil {
		return fmt.Errorf("save shop token: %w", err)
	}

	logger.FromContext(ctx).Info("shop installed", zap.String("shop", shop), zap.String("scope", token.Scope))
	return nil
}

// VerifyCallbackHMAC checks the hex hmac Shopify appends to OAuth redirects:
// sha256 over the remaining query parameters sorted by key, joined by '&'.
func VerifyCallbackHMAC(params url.Values, secret string) bool {
	given := params.Get("hmac")
	if given == "" {
		return false
	}
	sum, err := hex.DecodeString(given)
	if err != nil {
		return false
	}
	return hmac.Equal(sum, callbackDigest(params, secret))
}

func callbackDigest(params url.Values, secret string) []byte {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "hmac" || k == "signature" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + strings.Join(params[k], ",")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(pairs, "&")))
	return mac.Sum(nil)
}

type tokenProvider struct {
	cfg      *config.Shopify
	shopRepo repository.ShopRepository
}

// NewTokenProvider prefers the statically configured token and falls back to
// the token stored by the install flow for the configured store.
func NewTokenProvider(cfg *config.Shopify, shopRepo repository.ShopRepository) client.TokenProvider {
	return &tokenProvider{cfg: cfg, shopRepo: shopRepo}
}

func (p *tokenProvider) AccessToken(ctx context.Context) (string, error) {
	if p.cfg.AccessToken != "" {
		return p.cfg.AccessToken, nil
	}
	shop, err := p.shopRepo.Get(ctx, p.cfg.Store)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", client.ErrShopifyNotConfigured
		}
		return "", fmt.Errorf("get shop token: %w", err)
	}
	if shop.AccessToken == "" {
		return "", client.ErrShopifyNotConfigured
	}
	return shop.AccessToken, nil
}
