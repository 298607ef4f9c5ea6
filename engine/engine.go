//go:generate mockgen -package $GOPACKAGE -source $GOFILE -destination engine_mock.go

package engine

import (
	"context"

	layouthost "github.com/wippyai/layout-host"
)

// Engine is the call surface of the native layout engine.
type Engine interface {
	// CreatePage allocates a page and returns its address.
	CreatePage(ctx context.Context) (layouthost.Pointer, error)

	// DestroyPage releases a page allocated by CreatePage.
	DestroyPage(ctx context.Context, page layouthost.Pointer) error

	// CreateBreakRecord allocates a break record and returns its address.
	CreateBreakRecord(ctx context.Context) (layouthost.Pointer, error)

	// DestroyBreakRecord releases a break record allocated by CreateBreakRecord.
	DestroyBreakRecord(ctx context.Context, br layouthost.Pointer) error

	// Close releases the engine and anything it still holds.
	Close(ctx context.Context) error
}
