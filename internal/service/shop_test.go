package service

import (
	"context"
	"encoding/hex"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopify-tally-integration/internal/client"
	"shopify-tally-integration/internal/model"
)

func signedCallback(shop, code, state, secret string) url.Values {
	params := url.Values{}
	params.Set("shop", shop)
	params.Set("code", code)
	params.Set("state", state)
	params.Set("timestamp", "1700000000")
	params.Set("hmac", hex.EncodeToString(callbackDigest(params, secret)))
	return params
}

func TestInstallAndCallback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.shopify.token = &model.ShopifyToken{AccessToken: "shpat_1", Scope: "read_orders"}

	redirect, err := f.shops.InstallURL(ctx, "demo.myshopify.com")
	require.NoError(t, err)
	u, err := url.Parse(redirect)
	require.NoError(t, err)
	state := u.Query().Get("state")
	require.NotEmpty(t, state)

	err = f.shops.Callback(ctx, signedCallback("demo.myshopify.com", "c0de", "wrong", "csecret"))
	assert.ErrorIs(t, err, ErrInvalidState)

	bad := signedCallback("demo.myshopify.com", "c0de", state, "other")
	assert.ErrorIs(t, f.shops.Callback(ctx, bad), ErrInvalidHMAC)

	require.NoError(t, f.shops.Callback(ctx, signedCallback("demo.myshopify.com", "c0de", state, "csecret")))
	assert.Equal(t, "c0de", f.shopify.exchanged)

	shop, err := f.shopDB.Get(ctx, "demo.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, "shpat_1", shop.AccessToken)
	assert.Empty(t, shop.State)

	token, err := NewTokenProvider(&f.cfg.Shopify, f.shopDB).AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "shpat_1", token)
}

func TestInstallURL_RejectsForeignShop(t *testing.T) {
	f := newFixture(t)
	_, err := f.shops.InstallURL(context.Background(), "evil.example.com")
	assert.ErrorIs(t, err, ErrInvalidShop)
}

func TestTokenProvider(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := NewTokenProvider(&f.cfg.Shopify, f.shopDB).AccessToken(ctx)
	assert.ErrorIs(t, err, client.ErrShopifyNotConfigured)

	f.cfg.Shopify.AccessToken = "static"
	token, err := NewTokenProvider(&f.cfg.Shopify, f.shopDB).AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "static", token)
}

func TestVerifyCallbackHMAC(t *testing.T) {
	params := signedCallback("demo.myshopify.com", "x", "y", "s")
	assert.True(t, VerifyCallbackHMAC(params, "s"))
	params.Set("hmac", strings.Repeat("0", 64))
	assert.False(t, VerifyCallbackHMAC(params, "s"))
	params.Del("hmac")
	assert.False(t, VerifyCallbackHMAC(params, "s"))
}
