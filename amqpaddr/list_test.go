package amqpaddr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseList_MultipleAddresses(t *testing.T) {
	list, err := ParseList("amqp://h1,amqp://h2:5673/vh")
	require.NoError(t, err)
	require.Equal(t, 2, list.Len())

	first, err := list.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "h1", first.Host())
	assert.False(t, first.Port().IsSet())
	assert.Equal(t, DefaultVirtualHost, first.VirtualHost())

	second, err := list.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "h2", second.Host())
	port, ok := second.Port().Get()
	assert.True(t, ok)
	assert.Equal(t, 5673, port)
	assert.Equal(t, "vh", second.VirtualHost())
}

func TestParseList_TrimsAndKeepsDuplicates(t *testing.T) {
	list, err := ParseList("  amqp://h1 ,\tamqp://h2\n, amqp://h1  ")
	require.NoError(t, err)

	hosts := make([]string, 0, list.Len())
	for _, addr := range list.All() {
		hosts = append(hosts, addr.Host())
	}
	assert.Equal(t, []string{"h1", "h2", "h1"}, hosts)
}

func TestParseList_Malformed(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantIndex int
		wantToken string
		wantCause bool
	}{
		{name: "empty", input: "", wantIndex: -1, wantToken: ""},
		{name: "whitespace only", input: "  \t ", wantIndex: -1, wantToken: "  \t "},
		{name: "empty middle entry", input: "amqp://h1,,amqp://h2", wantIndex: 1, wantToken: ""},
		{name: "trailing comma", input: "amqp://h1,", wantIndex: 1, wantToken: ""},
		{name: "leading comma", input: ",amqp://h1", wantIndex: 0, wantToken: ""},
		{name: "not a uri", input: "not-a-uri", wantIndex: 0, wantToken: "not-a-uri", wantCause: true},
		{name: "bad second entry", input: "amqp://h1, http://h2", wantIndex: 1, wantToken: "http://h2", wantCause: true},
		{name: "bad port in third entry", input: "amqp://h1,amqp://h2,amqp://h3:99999", wantIndex: 2, wantToken: "amqp://h3:99999", wantCause: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := ParseList(tt.input)
			require.Error(t, err)
			assert.Zero(t, list.Len(), "no partial list on failure")
			assert.ErrorIs(t, err, ErrMalformedAddress)

			var malformedErr *MalformedAddressError
			require.ErrorAs(t, err, &malformedErr)
			assert.Equal(t, tt.wantIndex, malformedErr.Index)
			assert.Equal(t, tt.wantToken, malformedErr.Input)

			if tt.wantCause {
				var cause *MalformedAddressError
				require.ErrorAs(t, malformedErr.Err, &cause, "builder failure must be kept as cause")
				assert.Equal(t, -1, cause.Index)
				assert.Equal(t, tt.wantToken, cause.Input)
				assert.Contains(t, err.Error(), cause.Error())
			}
		})
	}
}

func TestList_Get(t *testing.T) {
	list, err := ParseList("amqp://h1,amqp://h2,amqp://h3")
	require.NoError(t, err)

	for i := 0; i < list.Len(); i++ {
		_, err := list.Get(i)
		assert.NoError(t, err, "Get(%d)", i)
	}

	for _, i := range []int{-1, list.Len(), list.Len() + 10} {
		_, err := list.Get(i)
		require.Error(t, err, "Get(%d)", i)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)

		var rangeErr *IndexOutOfRangeError
		require.ErrorAs(t, err, &rangeErr)
		assert.Equal(t, i, rangeErr.Index)
		assert.Equal(t, 3, rangeErr.Len)
	}
}

func TestList_GetOnEmptyList(t *testing.T) {
	_, err := NewList(nil).Get(0)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestList_IterationIsRepeatable(t *testing.T) {
	list, err := ParseList("amqp://h1,amqps://h2/orders,amqp://h3:5680")
	require.NoError(t, err)

	collect := func() []Address {
		var out []Address
		for _, addr := range list.All() {
			out = append(out, addr)
		}
		return out
	}

	first := collect()
	second := collect()
	assert.Equal(t, first, second)
	assert.Len(t, first, 3)

	var seen int
	for i := range list.All() {
		seen++
		if i == 1 {
			break
		}
	}
	assert.Equal(t, 2, seen, "iteration stops when the consumer breaks")
}

func TestNewList(t *testing.T) {
	t.Run("copies input", func(t *testing.T) {
		addrs := []Address{
			NewBuilder().WithHost("h1").Build(),
			NewBuilder().WithHost("h2").Build(),
		}
		list := NewList(addrs)
		addrs[0] = NewBuilder().WithHost("changed").Build()

		got, err := list.Get(0)
		require.NoError(t, err)
		assert.Equal(t, "h1", got.Host())
	})

	t.Run("empty input is accepted", func(t *testing.T) {
		assert.Equal(t, 0, NewList([]Address{}).Len())
		assert.Equal(t, 0, NewList(nil).Len())
	})

	t.Run("addresses returns a copy", func(t *testing.T) {
		list := NewList([]Address{NewBuilder().WithHost("h1").Build()})
		out := list.Addresses()
		out[0] = NewBuilder().WithHost("changed").Build()

		got, err := list.Get(0)
		require.NoError(t, err)
		assert.Equal(t, "h1", got.Host())
	})
}

func TestList_StringRoundTrip(t *testing.T) {
	input := "amqp://h1:5672/,amqp://h2:5673/vh,amqps://h3:5671/a%2Fb"
	list, err := ParseList(input)
	require.NoError(t, err)
	assert.Equal(t, input, list.String())

	again, err := ParseList(list.String())
	require.NoError(t, err)
	assert.True(t, list.Equal(again))
}

func TestList_Equal(t *testing.T) {
	a, err := ParseList("amqp://h1,amqp://h2")
	require.NoError(t, err)
	b, err := ParseList("amqp://h1, amqp://h2")
	require.NoError(t, err)
	c, err := ParseList("amqp://h2,amqp://h1")
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c), "order matters")
}
