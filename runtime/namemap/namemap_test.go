package namemap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestMap_PublishRead(t *testing.T) {
	testCases := []struct {
		description string
		value       Value
		mismatch    Kind
	}{
		{description: "int", value: Int(3), mismatch: KindFloat},
		{description: "float", value: Float(2.5), mismatch: KindInt},
		{description: "floats", value: Floats([]float64{1, 2}), mismatch: KindBuffer},
		{description: "buffer", value: Buffer("uint8", []byte{1, 2, 3}), mismatch: KindFloats},
	}
	for _, tc := range testCases {
		m := New()
		_, err := m.Read("k", tc.value.Kind)
		assert.True(t, errors.Is(err, ErrKeyNotFound), tc.description)

		require.NoError(t, m.Publish("k", tc.value), tc.description)
		actual, err := m.Read("k", tc.value.Kind)
		assert.NoError(t, err, tc.description)
		assert.Equal(t, tc.value, actual, tc.description)

		_, err = m.Read("k", tc.mismatch)
		assert.True(t, errors.Is(err, ErrTypeMismatch), tc.description)
	}
}

func TestMap_LastWriteWins(t *testing.T) {
	m := New()
	require.NoError(t, m.PublishInt("t", 1))
	require.NoError(t, m.PublishInt("t", 3))
	v, err := m.ReadInt("t")
	require.NoError(t, err)
	assert.EqualValues(t, 3, v)

	require.NoError(t, m.PublishFloat("t", 0.5))
	_, err = m.ReadInt("t")
	assert.True(t, errors.Is(err, ErrTypeMismatch))
	f, err := m.ReadFloat("t")
	require.NoError(t, err)
	assert.Equal(t, 0.5, f)
}

func TestMap_PublishCopies(t *testing.T) {
	m := New()
	data := []float64{1, 2}
	require.NoError(t, m.PublishFloats("data", data))
	data[0] = 100
	actual, err := m.ReadFloats("data")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, actual)
}

func TestMap_ReadCopies(t *testing.T) {
	m := New()
	require.NoError(t, m.PublishFloats("data", []float64{1, 2}))
	require.NoError(t, m.PublishBuffer("raw", "uint8", []byte{1, 2}))

	value, err := m.Read("data", KindFloats)
	require.NoError(t, err)
	value.Floats[0] = 100
	raw, err := m.Read("raw", KindBuffer)
	require.NoError(t, err)
	raw.Buffer[0] = 100

	actual, err := m.ReadFloats("data")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, actual)
	data, err := m.ReadBuffer("raw", "uint8")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, data)
}

func TestMap_Buffer(t *testing.T) {
	m := New()
	require.NoError(t, m.PublishBuffer("particles", "float32", []byte{0, 0, 128, 63}))
	data, err := m.ReadBuffer("particles", "float32")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 128, 63}, data)
	_, err = m.ReadBuffer("particles", "int32")
	assert.True(t, errors.Is(err, ErrTypeMismatch))
	assert.True(t, errors.Is(m.Publish("x", Value{}), ErrTypeMismatch))
}

func TestMap_Keys(t *testing.T) {
	m := New()
	require.NoError(t, m.PublishInt("b", 1))
	require.NoError(t, m.PublishInt("a", 2))
	assert.Equal(t, []string{"a", "b"}, m.Keys())
	assert.True(t, m.Exists("a"))
	assert.Equal(t, 2, m.Len())
	m.Delete("a")
	assert.False(t, m.Exists("a"))
	m.Clear()
	assert.Equal(t, 0, m.Len())
}

func TestMap_Queue(t *testing.T) {
	ctx := context.Background()
	m := New(WithQueueBuffer(2))
	assert.True(t, errors.Is(m.Enqueue(ctx, "q", Int(1)), ErrKeyNotFound))
	_, err := m.Dequeue("q")
	assert.True(t, errors.Is(err, ErrKeyNotFound))
	assert.True(t, m.QueueEmpty("q"))

	m.CreateQueue("q")
	assert.True(t, m.QueueEmpty("q"))
	require.NoError(t, m.Enqueue(ctx, "q", Int(1)))
	require.NoError(t, m.Enqueue(ctx, "q", Floats([]float64{2})))
	assert.Error(t, m.Enqueue(ctx, "q", Int(3)))
	assert.Equal(t, 2, m.QueueLen("q"))
	m.CreateQueue("q")
	assert.Equal(t, 2, m.QueueLen("q"))

	v, err := m.Dequeue("q")
	require.NoError(t, err)
	assert.Equal(t, Int(1), v)
	v, err = m.Dequeue("q")
	require.NoError(t, err)
	assert.Equal(t, []float64{2}, v.Floats)
	_, err = m.Dequeue("q")
	assert.True(t, errors.Is(err, ErrQueueEmpty))
	assert.True(t, m.QueueEmpty("q"))
}

func TestValue(t *testing.T) {
	kind, err := ParseKind("double")
	require.NoError(t, err)
	assert.Equal(t, KindFloat, kind)
	kind, err = ParseKind("array")
	require.NoError(t, err)
	assert.Equal(t, KindFloats, kind)
	_, err = ParseKind("complex")
	assert.Error(t, err)

	assert.Equal(t, "floats", KindFloats.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
	assert.Equal(t, "3", Int(3).String())
	assert.Equal(t, "uint8[2 bytes]", Buffer("uint8", []byte{1, 2}).String())

	v, err := ValueOf(7)
	require.NoError(t, err)
	assert.Equal(t, Int(7), v)
	_, err = ValueOf("text")
	assert.True(t, errors.Is(err, ErrTypeMismatch))
	assert.True(t, Value{}.IsZero())
	assert.Equal(t, 2.5, Float(2.5).Interface())
}

func TestMap_Identity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m := New()
		key := rapid.StringMatching(`[a-z]{1,8}`).Draw(t, "key")
		var value Value
		switch rapid.IntRange(0, 2).Draw(t, "kind") {
		case 0:
			value = Int(rapid.Int64().Draw(t, "int"))
		case 1:
			value = Float(rapid.Float64Range(-1e9, 1e9).Draw(t, "float"))
		default:
			value = Floats(rapid.SliceOfN(rapid.Float64Range(-1e6, 1e6), 1, 16).Draw(t, "floats"))
		}
		if err := m.Publish(key, value); err != nil {
			t.Fatal(err)
		}
		actual, err := m.Read(key, value.Kind)
		if err != nil {
			t.Fatal(err)
		}
		if actual.String() != value.String() {
			t.Fatalf("read %v, published %v", actual, value)
		}
		other := KindInt
		if value.Kind == KindInt {
			other = KindFloat
		}
		if _, err = m.Read(key, other); !errors.Is(err, ErrTypeMismatch) {
			t.Fatalf("expected type mismatch, got %v", err)
		}
		if _, err = m.Read(key+"_", value.Kind); !errors.Is(err, ErrKeyNotFound) {
			t.Fatalf("expected key not found, got %v", err)
		}
	})
}
