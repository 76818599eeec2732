package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBridge(kv KV) *Bridge {
	return NewBridge(BridgeConfig{KV: kv, PublicURL: "http://companion.local/", Logger: zerolog.Nop()})
}

func TestLoadEmptyStorage(t *testing.T) {
	b := newTestBridge(NewMemoryKV())
	require.NoError(t, b.Load(context.Background()))

	cur := b.Current()
	assert.Nil(t, cur.APIKey)
	assert.Nil(t, cur.ReportSourceURL)
}

func TestLoadPersistedValues(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(ctx, StorageKeyAPIKey, "k-123"))
	require.NoError(t, kv.Set(ctx, StorageKeyReportSource, "http://example.com/r"))

	b := newTestBridge(kv)
	require.NoError(t, b.Load(ctx))

	cur := b.Current()
	require.NotNil(t, cur.APIKey)
	require.NotNil(t, cur.ReportSourceURL)
	assert.Equal(t, "k-123", *cur.APIKey)
	assert.Equal(t, "http://example.com/r", *cur.ReportSourceURL)
}

func TestHandleClosedCancelled(t *testing.T) {
	kv := NewMemoryKV()
	b := newTestBridge(kv)

	applied, err := b.HandleClosed(context.Background(), "  ")
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Nil(t, b.Current().APIKey)
}

func TestHandleClosedPersistsAndApplies(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	b := newTestBridge(kv)

	resp, err := EncodeResponse("abc", "https://status.example/now")
	require.NoError(t, err)

	applied, err := b.HandleClosed(ctx, resp)
	require.NoError(t, err)
	assert.True(t, applied)

	cur := b.Current()
	assert.Equal(t, "abc", *cur.APIKey)
	assert.Equal(t, "https://status.example/now", *cur.ReportSourceURL)

	v, ok, err := kv.Get(ctx, StorageKeyAPIKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	v, ok, err = kv.Get(ctx, StorageKeyReportSource)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "https://status.example/now", v)

	// survives a restart
	restarted := newTestBridge(kv)
	require.NoError(t, restarted.Load(ctx))
	assert.Equal(t, "abc", *restarted.Current().APIKey)
}

func TestHandleClosedEmptyValueKeepsSetting(t *testing.T) {
	ctx := context.Background()
	b := newTestBridge(NewMemoryKV())

	_, err := b.HandleClosed(ctx, `{"apiKey":{"value":"first"}}`)
	require.NoError(t, err)

	applied, err := b.HandleClosed(ctx, `{"apiKey":{"value":""},"reportSourceUrl":{"value":"http://x"}}`)
	require.NoError(t, err)
	assert.True(t, applied)

	cur := b.Current()
	assert.Equal(t, "first", *cur.APIKey)
	assert.Equal(t, "http://x", *cur.ReportSourceURL)
}

func TestHandleClosedInvalidJSON(t *testing.T) {
	b := newTestBridge(NewMemoryKV())

	_, err := b.HandleClosed(context.Background(), "{not json")
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

type failingKV struct{ *MemoryKV }

func (failingKV) Set(context.Context, string, string) error { return errors.New("disk full") }

func TestHandleClosedPersistFailureLeavesMemory(t *testing.T) {
	b := newTestBridge(&failingKV{MemoryKV: NewMemoryKV()})

	_, err := b.HandleClosed(context.Background(), `{"apiKey":{"value":"abc"}}`)
	assert.ErrorContains(t, err, "disk full")
	assert.Nil(t, b.Current().APIKey)
}

func TestCurrentIsACopy(t *testing.T) {
	b := newTestBridge(NewMemoryKV())
	_, err := b.HandleClosed(context.Background(), `{"apiKey":{"value":"abc"}}`)
	require.NoError(t, err)

	cur := b.Current()
	*cur.APIKey = "mutated"
	assert.Equal(t, "abc", *b.Current().APIKey)
}

func TestFormURL(t *testing.T) {
	b := newTestBridge(NewMemoryKV())

	assert.Equal(t, "http://companion.local/config", b.FormURL(""))
	assert.Equal(t,
		"http://companion.local/config?return_to=pebblejs%3A%2F%2Fclose",
		b.FormURL("pebblejs://close"))
}

func TestFormSchema(t *testing.T) {
	b := newTestBridge(NewMemoryKV())
	_, err := b.HandleClosed(context.Background(), `{"reportSourceUrl":{"value":"http://r"}}`)
	require.NoError(t, err)

	items := b.FormSchema()
	require.Len(t, items, 5)
	assert.Equal(t, ItemHeading, items[0].Type)
	assert.Equal(t, "Watch Configuration", items[0].DefaultValue)
	assert.Equal(t, "Save Settings", items[4].DefaultValue)

	inputs := Inputs(items)
	require.Len(t, inputs, 2)
	assert.Equal(t, FieldAPIKey, inputs[0].MessageKey)
	assert.Equal(t, "API Key", inputs[0].Label)
	assert.Equal(t, "", inputs[0].DefaultValue)
	assert.Equal(t, FieldReportSourceURL, inputs[1].MessageKey)
	assert.Equal(t, "HTTP address", inputs[1].Label)
	assert.Equal(t, "http://r", inputs[1].DefaultValue)
}
