package rendering

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

func TestRenderComponent(t *testing.T) {
	r := NewUniversalRenderer()

	out, err := r.RenderComponent(context.Background(), h.Span(g.Text("node")))
	require.NoError(t, err)
	assert.Equal(t, "<span>node</span>", string(out))

	comp := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "templ")
		return err
	})
	out, err = r.RenderComponent(context.Background(), comp)
	require.NoError(t, err)
	assert.Equal(t, "templ", string(out))

	_, err = r.RenderComponent(context.Background(), 42)
	assert.Error(t, err)
}

func TestRenderPage(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, NewUniversalRenderer().RenderPage(c, http.StatusAccepted, h.P(g.Text("hi"))))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, echo.MIMETextHTMLCharsetUTF8, rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "<p>hi</p>", rec.Body.String())
}
