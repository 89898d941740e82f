package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvelopeMarshalFlattensFields(t *testing.T) {
	envelope := NewEnvelope(KeyTowerDefense, TDCommandAddTower).
		WithField("tower", map[string]interface{}{"type": "basic"}).
		WithField("id", "conn-1")
	data, err := json.Marshal(envelope)
	if err != nil {
		t.Fatal(err)
	}
	m := map[string]interface{}{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, KeyTowerDefense, m["key"])
	assert.Equal(t, TDCommandAddTower, m["value"])
	assert.Equal(t, "conn-1", m["id"])
	// extra fields ride at the top level, there is no nested fields object
	_, ok := m["fields"]
	assert.False(t, ok)
	tower, ok := m["tower"].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, "basic", tower["type"])
}

func TestEnvelopeUnmarshalCollectsExtraFields(t *testing.T) {
	raw := `{"key":"chat","value":"hello","targetFilter":"Target.Profile.Name=='x'","id":"conn-2","extra":17}`
	envelope := Envelope{}
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, KeyChat, envelope.Key)
	assert.Equal(t, "hello", envelope.StringValue())
	assert.Equal(t, "Target.Profile.Name=='x'", envelope.TargetFilter)
	assert.Equal(t, "conn-2", envelope.StringField("id"))
	assert.Equal(t, float64(17), envelope.Fields["extra"])
}

func TestEnvelopeRoundTrip(t *testing.T) {
	envelope := NewEnvelope(KeyEmoji, map[string]interface{}{"name": "wave", "speed": 1500}).
		WithField("id", "conn-3")
	data, err := json.Marshal(envelope)
	if err != nil {
		t.Fatal(err)
	}
	decoded := Envelope{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, KeyEmoji, decoded.Key)
	dict := EmojiDict{}
	if err := decoded.DecodeValue(&dict); err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, "wave", dict.Name)
	assert.Equal(t, 1500, dict.Speed)
	assert.Equal(t, "conn-3", decoded.StringField("id"))
}

func TestDecodeFieldWeaklyTyped(t *testing.T) {
	raw := `{"key":"tower defense","value":"spawn enemy","enemy":{"key":"u1","type":"grunt","top":"0.5","left":0,"value":10}}`
	envelope := Envelope{}
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		t.Fatal(err)
	}
	unit := Unit{}
	if err := envelope.DecodeField("enemy", &unit); err != nil {
		t.Fatal(err)
	}
	// the decode is weakly typed, a stringly top still lands in the float
	assert.Equal(t, 0.5, unit.Top)
	assert.Equal(t, 10, unit.Value)
	assert.Equal(t, "grunt", unit.Type)
}

func TestPinnedItemStoreKey(t *testing.T) {
	background := PinnedItem{Type: PinTypeBackground, Key: "whatever"}
	assert.Equal(t, BackgroundKey, background.StoreKey())

	nft := PinnedItem{Type: PinTypeNFT, Key: "k", Order: &Order{Id: "order-1"}}
	assert.Equal(t, "order-1", nft.StoreKey())

	gif := PinnedItem{Type: PinTypeGif, Key: "gif-key"}
	assert.Equal(t, "gif-key", gif.StoreKey())
}
