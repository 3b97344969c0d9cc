// Package partials holds small templ components shared by the pages.
package partials

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/nfrund/authtest/internal/view/dto/auth"
)

// Notices renders the pending notices as alerts. Nothing is written when
// there are none.
func Notices(notices []auth.Notice) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(notices) == 0 {
			return nil
		}
		if _, err := io.WriteString(w, `<div id="notices">`); err != nil {
			return err
		}
		for _, n := range notices {
			_, err := fmt.Fprintf(w, `<div class="notice notice-%s" role="alert">%s</div>`,
				templ.EscapeString(string(n.Level)), templ.EscapeString(n.Message))
			if err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}
