// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build windows

package facts

import (
	"golang.org/x/sys/windows/registry"
)

type windowsRegistry struct{}

var _ Registry = windowsRegistry{}

// NewRegistry returns the native Windows registry reader.
func NewRegistry() Registry {
	return windowsRegistry{}
}

func rootKey(root RegistryRoot) registry.Key {
	if root == RootCurrentUser {
		return registry.CURRENT_USER
	}
	return registry.LOCAL_MACHINE
}

func (windowsRegistry) DWORD(root RegistryRoot, path, name string) (uint64, error) {
	k, err := registry.OpenKey(rootKey(root), path, registry.QUERY_VALUE)
	if err != nil {
		return 0, err
	}
	defer k.Close()
	v, _, err := k.GetIntegerValue(name)
	return v, err
}

func (windowsRegistry) String(root RegistryRoot, path, name string) (string, error) {
	k, err := registry.OpenKey(rootKey(root), path, registry.QUERY_VALUE)
	if err != nil {
		return "", err
	}
	defer k.Close()
	v, _, err := k.GetStringValue(name)
	return v, err
}

func (windowsRegistry) KeyExists(root RegistryRoot, path string) bool {
	k, err := registry.OpenKey(rootKey(root), path, registry.QUERY_VALUE)
	if err != nil {
		return false
	}
	k.Close()
	return true
}
