// Package view bridges the two component libraries used by the pages.
package view

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"maragu.dev/gomponents"
)

// TemplNode wraps a templ.Component so it can be placed in a gomponents tree.
type TemplNode struct {
	Component templ.Component
	// Ctx is passed to the component; gomponents' Render has none of its own.
	Ctx context.Context
}

// Render implements gomponents.Node.
func (n TemplNode) Render(w io.Writer) error {
	ctx := n.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return n.Component.Render(ctx, w)
}

// AdaptTemplToGomponent converts a templ.Component into a gomponents.Node.
func AdaptTemplToGomponent(component templ.Component) gomponents.Node {
	return TemplNode{Component: component}
}

// GomponentNode wraps a gomponents.Node so it satisfies templ.Component.
type GomponentNode struct {
	Node gomponents.Node
}

// Render implements templ.Component.
func (n GomponentNode) Render(_ context.Context, w io.Writer) error {
	return n.Node.Render(w)
}

// AdaptGomponentToTempl converts a gomponents.Node into a templ.Component.
func AdaptGomponentToTempl(node gomponents.Node) templ.Component {
	return GomponentNode{Node: node}
}
