package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_sync/internal/feature/securities/domain/entity"
	"stock_sync/internal/platform/externalapi/fmp/dto"
)

const ownedPrefix = "https://cdn.example.com/logos/"

var ErrUpload = errors.New("upload failed")

func ptr[T any](v T) *T { return &v }

// mockProfileProvider is a mock implementation of the ProfileProvider interface.
type mockProfileProvider struct {
	profiles map[string]*dto.Profile
	calls    []string
}

func (m *mockProfileProvider) Profile(_ context.Context, symbol string) *dto.Profile {
	m.calls = append(m.calls, symbol)
	return m.profiles[symbol]
}

type image struct {
	body        string
	contentType string
	err         error
}

// mockImageFetcher serves fixed images by URL.
type mockImageFetcher struct {
	images map[string]image
	calls  []string
}

func (m *mockImageFetcher) Fetch(_ context.Context, url string) ([]byte, string, error) {
	m.calls = append(m.calls, url)
	img, ok := m.images[url]
	if !ok {
		return nil, "", errors.New("unexpected status 404")
	}
	return []byte(img.body), img.contentType, img.err
}

// mockObjectStore records puts.
type mockObjectStore struct {
	PutFunc func(key string) error
	puts    map[string]string
	types   map[string]string
}

func newMockObjectStore() *mockObjectStore {
	return &mockObjectStore{puts: map[string]string{}, types: map[string]string{}}
}

func (m *mockObjectStore) Put(_ context.Context, key string, body []byte, contentType string) (string, error) {
	if m.PutFunc != nil {
		if err := m.PutFunc(key); err != nil {
			return "", err
		}
	}
	m.puts[key] = string(body)
	m.types[key] = contentType
	return m.PublicURL(key), nil
}

func (m *mockObjectStore) PublicURL(key string) string { return ownedPrefix + key }

// mockInstrumentRepository is a mock implementation of the InstrumentRepository interface.
type mockInstrumentRepository struct {
	active []entity.Instrument
	logos  map[uint]string
}

func (m *mockInstrumentRepository) ListActive(context.Context) ([]entity.Instrument, error) {
	return m.active, nil
}

func (m *mockInstrumentRepository) SetLogoURL(_ context.Context, id uint, url string) error {
	if m.logos == nil {
		m.logos = map[uint]string{}
	}
	m.logos[id] = url
	return nil
}

// mockRateLimiter is a mock implementation of the RateLimiterInterface.
type mockRateLimiter struct {
	WaitIfNeededCalls int
}

func (m *mockRateLimiter) WaitIfNeeded() { m.WaitIfNeededCalls++ }

func TestLogosUsecase_Run(t *testing.T) {
	repo := &mockInstrumentRepository{active: []entity.Instrument{
		{ID: 1, Symbol: "1155", ExternalSymbol: "1155.KL", LogoURL: ptr("https://images.fmp.example/1155.KL.png")},
		{ID: 2, Symbol: "MAYBANK", ExternalSymbol: "1295.KL"},
		{ID: 3, Symbol: "5347", ExternalSymbol: "5347.KL", LogoURL: ptr(ownedPrefix + "5347.png")},
		{ID: 4, Symbol: "7113", ExternalSymbol: "7113.KL", LogoURL: ptr("https://images.fmp.example/broken.png")},
		{ID: 5, Symbol: "0800EA", ExternalSymbol: "0800EA.KL"},
	}}
	profiles := &mockProfileProvider{profiles: map[string]*dto.Profile{
		"1295.KL":   {Image: "https://images.fmp.example/1295.KL.svg"},
		"0800EA.KL": {Image: ""},
	}}
	images := &mockImageFetcher{images: map[string]image{
		"https://images.fmp.example/1155.KL.png": {body: "png-bytes", contentType: "image/png"},
		"https://images.fmp.example/1295.KL.svg": {body: "<svg/>", contentType: "image/svg+xml"},
	}}
	store := newMockObjectStore()
	pacer := &mockRateLimiter{}

	n, err := NewLogosUsecase(profiles, images, store, repo, pacer).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"1295.KL", "0800EA.KL"}, profiles.calls, "profile only fetched without a stored external URL")
	assert.NotContains(t, images.calls, ownedPrefix+"5347.png", "owned logos are not re-mirrored")

	assert.Equal(t, "png-bytes", store.puts["1155.png"])
	assert.Equal(t, "<svg/>", store.puts["maybank.svg"], "key is the lowercased local symbol")
	assert.Equal(t, "image/svg+xml", store.types["maybank.svg"])

	assert.Equal(t, map[uint]string{
		1: ownedPrefix + "1155.png",
		2: ownedPrefix + "maybank.svg",
	}, repo.logos)
	// 2 profile fetches + 2 successful instruments
	assert.Equal(t, 4, pacer.WaitIfNeededCalls)
}

// eventLog records pacer waits and provider calls in order.
type eventLog struct {
	events []string
}

type loggingPacer struct{ log *eventLog }

func (p loggingPacer) WaitIfNeeded() { p.log.events = append(p.log.events, "wait") }

type loggingProfileProvider struct{ log *eventLog }

func (p loggingProfileProvider) Profile(_ context.Context, symbol string) *dto.Profile {
	p.log.events = append(p.log.events, "profile "+symbol)
	return nil
}

func TestLogosUsecase_Run_PacesBeforeEveryProfileCall(t *testing.T) {
	repo := &mockInstrumentRepository{active: []entity.Instrument{
		{ID: 1, Symbol: "1155", ExternalSymbol: "1155.KL"},
		{ID: 2, Symbol: "1295", ExternalSymbol: "1295.KL"},
		{ID: 3, Symbol: "5347", ExternalSymbol: "5347.KL"},
	}}
	log := &eventLog{}

	n, err := NewLogosUsecase(loggingProfileProvider{log}, &mockImageFetcher{}, newMockObjectStore(), repo, loggingPacer{log}).Run(context.Background())

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, []string{
		"wait", "profile 1155.KL",
		"wait", "profile 1295.KL",
		"wait", "profile 5347.KL",
	}, log.events, "the first profile call is paced too")
}

func TestLogosUsecase_Run_UploadFailureSkips(t *testing.T) {
	repo := &mockInstrumentRepository{active: []entity.Instrument{
		{ID: 1, Symbol: "1155", ExternalSymbol: "1155.KL", LogoURL: ptr("https://img/1155.jpg")},
		{ID: 2, Symbol: "1295", ExternalSymbol: "1295.KL", LogoURL: ptr("https://img/1295.jpg")},
	}}
	images := &mockImageFetcher{images: map[string]image{
		"https://img/1155.jpg": {body: "a", contentType: "image/jpeg"},
		"https://img/1295.jpg": {body: "b", contentType: "image/jpeg"},
	}}
	store := newMockObjectStore()
	store.PutFunc = func(key string) error {
		if key == "1155.jpg" {
			return ErrUpload
		}
		return nil
	}

	n, err := NewLogosUsecase(&mockProfileProvider{}, images, store, repo, &mockRateLimiter{}).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, map[uint]string{2: ownedPrefix + "1295.jpg"}, repo.logos)
}

func TestNeedsMirror(t *testing.T) {
	assert.True(t, NeedsMirror(nil, ownedPrefix))
	assert.True(t, NeedsMirror(ptr(""), ownedPrefix))
	assert.True(t, NeedsMirror(ptr("https://images.fmp.example/x.png"), ownedPrefix))
	assert.False(t, NeedsMirror(ptr(ownedPrefix+"x.png"), ownedPrefix))
	assert.False(t, NeedsMirror(ptr("/logos/x.png"), ownedPrefix), "relative paths are already local")
	assert.True(t, NeedsMirror(ptr("http://other/x.png"), ""))
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"image/svg+xml", "abc.svg"},
		{"image/jpeg", "abc.jpg"},
		{"image/jpg", "abc.jpg"},
		{"image/png", "abc.png"},
		{"image/webp", "abc.png"},
		{"", "abc.png"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ObjectKey("ABC", tt.contentType), tt.contentType)
	}
}
