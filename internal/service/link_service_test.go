package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"linkgate/constant"
	"linkgate/internal/apperrors"
	"linkgate/internal/model"
	"linkgate/internal/repository"
)

// newTestLinkService wires a LinkService to an in-memory store with a fixed clock.
func newTestLinkService(t *testing.T) (*LinkService, *repository.MemoryStore, time.Time) {
	t.Helper()
	store := repository.NewMemoryStore()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	svc := NewLinkService(store)
	svc.now = func() time.Time { return now }
	return svc, store, now
}

// --- Create ---

func TestCreate_StoresEntityAndOwnerIndex(t *testing.T) {
	svc, store, now := newTestLinkService(t)

	code, link, err := svc.Create("https://example.com", "owner-1", CreateOptions{})
	require.NoError(t, err)
	require.Len(t, code, CodeLength)
	assert.Equal(t, model.TypeRedirect, link.Type)
	assert.Equal(t, "https://example.com", link.TargetURL)
	assert.Equal(t, now.UnixMilli(), link.CreatedAt)
	assert.Zero(t, link.CurrentClicks)

	var stored model.Link
	ok, err := store.GetJSON(constant.GetLinkKey(code), &stored)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "owner-1", stored.CreatedBy)

	codes, err := svc.ListByOwner("owner-1")
	require.NoError(t, err)
	assert.Equal(t, []string{code}, codes)
}

func TestCreate_InvalidURL(t *testing.T) {
	svc, _, _ := newTestLinkService(t)

	_, _, err := svc.Create("not a url", "owner-1", CreateOptions{})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidInput))
}

func TestCreate_CollisionRetriesThenExhausts(t *testing.T) {
	svc, store, _ := newTestLinkService(t)

	// Every candidate collides with a pre-existing entity.
	require.NoError(t, store.PutJSON(constant.GetLinkKey("AAAAAA"), &model.Link{Type: model.TypeRedirect}))
	attempts := 0
	svc.genCode = func() string {
		attempts++
		return "AAAAAA"
	}

	_, _, err := svc.Create("https://example.com", "owner-1", CreateOptions{})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindCodeSpaceExhausted))
	assert.Equal(t, 5, attempts)
}

func TestCreate_CollisionRecoversOnFreshCode(t *testing.T) {
	svc, store, _ := newTestLinkService(t)

	require.NoError(t, store.PutJSON(constant.GetLinkKey("AAAAAA"), &model.Link{Type: model.TypeRedirect}))
	codes := []string{"AAAAAA", "BBBBBB"}
	svc.genCode = func() string {
		c := codes[0]
		codes = codes[1:]
		return c
	}

	code, _, err := svc.Create("https://example.com", "owner-1", CreateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "BBBBBB", code)
}

// --- Resolve state machine ---

func TestResolve_NotFound(t *testing.T) {
	svc, _, _ := newTestLinkService(t)

	res, err := svc.Resolve("missin")
	require.NoError(t, err)
	assert.Equal(t, StateNotFound, res.State)
	assert.Nil(t, res.Link)
}

func TestResolve_ExpiredWinsOverExhausted(t *testing.T) {
	svc, store, now := newTestLinkService(t)

	// Both expired and over the click limit: expiry must be reported.
	link := &model.Link{
		Type:          model.TypeRedirect,
		TargetURL:     "https://example.com",
		ExpiresAt:     now.Add(-time.Hour).UnixMilli(),
		MaxClicks:     1,
		CurrentClicks: 5,
	}
	require.NoError(t, store.PutJSON(constant.GetLinkKey("abc123"), link))

	res, err := svc.Resolve("abc123")
	require.NoError(t, err)
	assert.Equal(t, StateExpired, res.State)
	require.NotNil(t, res.Link)
}

func TestResolve_Exhausted(t *testing.T) {
	svc, store, _ := newTestLinkService(t)

	link := &model.Link{
		Type:          model.TypeRedirect,
		TargetURL:     "https://example.com",
		MaxClicks:     3,
		CurrentClicks: 3,
	}
	require.NoError(t, store.PutJSON(constant.GetLinkKey("abc123"), link))

	res, err := svc.Resolve("abc123")
	require.NoError(t, err)
	assert.Equal(t, StateExhausted, res.State)
}

func TestResolve_ActiveWithFutureExpiry(t *testing.T) {
	svc, store, now := newTestLinkService(t)

	link := &model.Link{
		Type:      model.TypeRedirect,
		TargetURL: "https://example.com",
		ExpiresAt: now.Add(time.Hour).UnixMilli(),
	}
	require.NoError(t, store.PutJSON(constant.GetLinkKey("abc123"), link))

	res, err := svc.Resolve("abc123")
	require.NoError(t, err)
	assert.Equal(t, StateActive, res.State)
}

// --- RecordHit ---

func TestRecordHit_SingleUseLinkExhausts(t *testing.T) {
	svc, _, _ := newTestLinkService(t)

	code, _, err := svc.Create("https://example.com", "owner-1", CreateOptions{MaxClicks: 1})
	require.NoError(t, err)

	res, err := svc.Resolve(code)
	require.NoError(t, err)
	require.Equal(t, StateActive, res.State)

	require.NoError(t, svc.RecordHit(code))

	res, err = svc.Resolve(code)
	require.NoError(t, err)
	assert.Equal(t, StateExhausted, res.State)
}

func TestRecordHit_UnlimitedLinkNotCountedHere(t *testing.T) {
	svc, store, _ := newTestLinkService(t)

	code, _, err := svc.Create("https://example.com", "owner-1", CreateOptions{})
	require.NoError(t, err)

	require.NoError(t, svc.RecordHit(code))

	var stored model.Link
	_, err = store.GetJSON(constant.GetLinkKey(code), &stored)
	require.NoError(t, err)
	assert.Zero(t, stored.CurrentClicks)
}

func TestRecordHit_UnknownCodeIsNoop(t *testing.T) {
	svc, _, _ := newTestLinkService(t)
	require.NoError(t, svc.RecordHit("nosuch"))
}

// --- Store failures ---

// failingStore simulates a store outage: every read fails with a transport error.
type failingStore struct {
	*repository.MemoryStore
	readErr error
}

func (f *failingStore) GetJSON(key string, out interface{}) (bool, error) {
	return false, f.readErr
}

func (f *failingStore) GetString(key string) (string, bool, error) {
	return "", false, f.readErr
}

func TestResolve_StoreOutageIsSystemErrorNotNotFound(t *testing.T) {
	svc := NewLinkService(&failingStore{
		MemoryStore: repository.NewMemoryStore(),
		readErr:     errors.New("connection refused"),
	})

	res, err := svc.Resolve("abc123")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindSystem))
	assert.Nil(t, res)
}

func TestEdit_StoreOutagePropagates(t *testing.T) {
	svc := NewLinkService(&failingStore{
		MemoryStore: repository.NewMemoryStore(),
		readErr:     errors.New("connection refused"),
	})

	target := "https://example.com"
	err := svc.Edit("abc123", "owner-1", LinkPatch{TargetURL: &target})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindSystem))
	assert.False(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestResolve_UndecodableRecordTreatedAsMissing(t *testing.T) {
	svc, store, _ := newTestLinkService(t)

	store.PutRawString(constant.GetLinkKey("abc123"), "{not json")

	res, err := svc.Resolve("abc123")
	require.NoError(t, err)
	assert.Equal(t, StateNotFound, res.State)
}

// --- Legacy upgrade ---

func TestResolve_LegacyBareURLUpgradedLazily(t *testing.T) {
	svc, store, _ := newTestLinkService(t)

	store.PutRawString(constant.GetLegacyKey("old001"), "https://legacy.example.com")

	res, err := svc.Resolve("old001")
	require.NoError(t, err)
	require.Equal(t, StateActive, res.State)
	assert.Equal(t, "https://legacy.example.com", res.Link.TargetURL)

	// New-format entity written, legacy key preserved.
	var upgraded model.Link
	ok, err := store.GetJSON(constant.GetLinkKey("old001"), &upgraded)
	require.NoError(t, err)
	assert.True(t, ok)

	raw, ok, err := store.GetString(constant.GetLegacyKey("old001"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "https://legacy.example.com", raw)
}

// --- Edit / Delete ---

func TestEdit_OwnershipDenied(t *testing.T) {
	svc, _, _ := newTestLinkService(t)

	code, _, err := svc.Create("https://example.com", "owner-1", CreateOptions{})
	require.NoError(t, err)

	target := "https://other.example.com"
	err = svc.Edit(code, "intruder", LinkPatch{TargetURL: &target})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindOwnershipDenied))
}

func TestEdit_NotFound(t *testing.T) {
	svc, _, _ := newTestLinkService(t)

	target := "https://other.example.com"
	err := svc.Edit("nosuch", "owner-1", LinkPatch{TargetURL: &target})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestEdit_AllowedOnExpiredEntity(t *testing.T) {
	svc, store, now := newTestLinkService(t)

	link := &model.Link{
		Type:      model.TypeRedirect,
		TargetURL: "https://example.com",
		CreatedBy: "owner-1",
		ExpiresAt: now.Add(-time.Hour).UnixMilli(),
	}
	require.NoError(t, store.PutJSON(constant.GetLinkKey("abc123"), link))

	target := "https://fresh.example.com"
	require.NoError(t, svc.Edit("abc123", "owner-1", LinkPatch{TargetURL: &target}))

	var stored model.Link
	_, err := store.GetJSON(constant.GetLinkKey("abc123"), &stored)
	require.NoError(t, err)
	assert.Equal(t, target, stored.TargetURL)
}

func TestEdit_AllowedOnExhaustedEntity(t *testing.T) {
	svc, store, _ := newTestLinkService(t)

	link := &model.Link{
		Type:          model.TypeRedirect,
		TargetURL:     "https://example.com",
		CreatedBy:     "owner-1",
		MaxClicks:     1,
		CurrentClicks: 1,
	}
	require.NoError(t, store.PutJSON(constant.GetLinkKey("abc123"), link))

	res, err := svc.Resolve("abc123")
	require.NoError(t, err)
	require.Equal(t, StateExhausted, res.State)

	target := "https://fresh.example.com"
	require.NoError(t, svc.Edit("abc123", "owner-1", LinkPatch{TargetURL: &target}))

	var stored model.Link
	_, err = store.GetJSON(constant.GetLinkKey("abc123"), &stored)
	require.NoError(t, err)
	assert.Equal(t, target, stored.TargetURL)
}

func TestEdit_PageFields(t *testing.T) {
	svc, store, _ := newTestLinkService(t)

	code, _, err := svc.CreatePage("owner-1", model.PageContent{
		Title:   "My Links",
		Buttons: []model.PageButton{{Label: "Blog", URL: "https://blog.example.com"}},
	})
	require.NoError(t, err)

	title := "Updated"
	btn := model.PageButton{Label: "Shop", URL: "https://shop.example.com"}
	require.NoError(t, svc.Edit(code, "owner-1", LinkPatch{Title: &title, AddButton: &btn}))

	var stored model.Link
	_, err = store.GetJSON(constant.GetLinkKey(code), &stored)
	require.NoError(t, err)
	require.NotNil(t, stored.Page)
	assert.Equal(t, "Updated", stored.Page.Title)
	require.Len(t, stored.Page.Buttons, 2)

	idx := 0
	require.NoError(t, svc.Edit(code, "owner-1", LinkPatch{RemoveButtonIndex: &idx}))
	_, err = store.GetJSON(constant.GetLinkKey(code), &stored)
	require.NoError(t, err)
	require.Len(t, stored.Page.Buttons, 1)
	assert.Equal(t, "Shop", stored.Page.Buttons[0].Label)
}

func TestDelete_RemovesEntityAndIndexEntry(t *testing.T) {
	svc, store, _ := newTestLinkService(t)

	code, _, err := svc.Create("https://example.com", "owner-1", CreateOptions{})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(code, "owner-1"))

	ok, err := store.Exists(constant.GetLinkKey(code))
	require.NoError(t, err)
	assert.False(t, ok)

	codes, err := svc.ListByOwner("owner-1")
	require.NoError(t, err)
	assert.Empty(t, codes)
}

func TestDelete_OwnershipDenied(t *testing.T) {
	svc, _, _ := newTestLinkService(t)

	code, _, err := svc.Create("https://example.com", "owner-1", CreateOptions{})
	require.NoError(t, err)

	err = svc.Delete(code, "intruder")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindOwnershipDenied))
}
