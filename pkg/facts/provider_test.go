// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build !windows

package facts

import (
	"context"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWMIProviderValidatesOptions(t *testing.T) {
	_, err := NewWMIProvider(logr.Discard(), Options{MaxRetries: 0})
	require.Error(t, err)

	p, err := NewWMIProvider(logr.Discard(), DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, p)
}

func TestStubProviderIsUnavailable(t *testing.T) {
	p, err := NewWMIProvider(logr.Discard(), DefaultOptions())
	require.NoError(t, err)

	assert.False(t, p.Available())

	var dst []struct{ Name string }
	_, err = p.Query(context.Background(), &dst, "Win32_Processor", "")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestStubRegistryIsUnavailable(t *testing.T) {
	r := NewRegistry()
	require.NotNil(t, r)

	_, err := r.DWORD(RootCurrentUser, `Software\Microsoft\GameBar`, "AllowAutoGameMode")
	assert.Error(t, err)
	_, err = r.String(RootLocalMachine, `SOFTWARE\Valve\Steam`, "InstallPath")
	assert.Error(t, err)
	assert.False(t, r.KeyExists(RootCurrentUser, `Software\Microsoft\GameBar`))
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, 3, opts.MaxRetries)
	assert.Equal(t, time.Second, opts.RetryDelay)
}
