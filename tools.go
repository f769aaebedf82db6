//go:build tools

// Package chat_presence pins the code generators used by go:generate (mockgen for mocks/),
// so go.mod tracks them and `go generate ./...` works on a fresh checkout.
package chat_presence

import (
	_ "go.uber.org/mock/mockgen"
)
