// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"testing"

	applog "audiovis/internal/log"
	"audiovis/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMulti(t *testing.T) {
	a, b := &utils.MockTransport{}, &utils.MockTransport{}
	failing := &utils.MockTransport{Err: errors.New("link down")}
	m := Multi{a, failing, b}

	err := m.Send("frame")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "link down")
	assert.Equal(t, []any{"frame"}, a.Sent())
	assert.Equal(t, []any{"frame"}, b.Sent(), "delivery continues past a failing transport")

	require.NoError(t, Multi{a, b}.Send(42))
	assert.Equal(t, 42, b.Last())

	m.Close()
	assert.True(t, a.Closed())
	assert.True(t, b.Closed())
}

func TestDiscard(t *testing.T) {
	var d Discard
	assert.NoError(t, d.Send(struct{}{}))
	assert.NoError(t, d.Close())
}

func TestLoggingTransport(t *testing.T) {
	prev := applog.GetLevel()
	applog.SetLevel(applog.LevelDebug)
	t.Cleanup(func() { applog.SetLevel(prev) })

	lt := NewLoggingTransport(0)
	assert.Equal(t, uint64(1), lt.Every)

	lt = NewLoggingTransport(10)
	for i := range 25 {
		require.NoError(t, lt.Send(map[string]int{"seq": i}))
	}
	require.NoError(t, lt.Send(make(chan int)), "unmarshalable values are still accepted")
	assert.Equal(t, uint64(26), lt.Sent())
	assert.NoError(t, lt.Close())
}
