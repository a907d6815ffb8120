// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build !windows

package facts

type stubRegistry struct{}

var _ Registry = stubRegistry{}

// NewRegistry returns a registry reader that reports every value absent.
func NewRegistry() Registry {
	return stubRegistry{}
}

func (stubRegistry) DWORD(root RegistryRoot, path, name string) (uint64, error) {
	return 0, ErrUnavailable
}

func (stubRegistry) String(root RegistryRoot, path, name string) (string, error) {
	return "", ErrUnavailable
}

func (stubRegistry) KeyExists(root RegistryRoot, path string) bool {
	return false
}
