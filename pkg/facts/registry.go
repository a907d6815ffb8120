// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package facts

// RegistryRoot selects the hive a registry read starts from.
type RegistryRoot int

const (
	RootCurrentUser RegistryRoot = iota
	RootLocalMachine
)

// Registry reads Windows registry values. Non-Windows builds get a stub that
// returns ErrUnavailable for every read, so callers always handle absence.
type Registry interface {
	// DWORD reads a REG_DWORD/REG_QWORD value.
	DWORD(root RegistryRoot, path, name string) (uint64, error)
	// String reads a REG_SZ/REG_EXPAND_SZ value.
	String(root RegistryRoot, path, name string) (string, error)
	// KeyExists reports whether the key path exists in the hive.
	KeyExists(root RegistryRoot, path string) bool
}
