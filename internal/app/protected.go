package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/nfrund/authtest/internal/identity"
	"github.com/nfrund/authtest/internal/meapi"
	"github.com/nfrund/authtest/internal/metrics"
	"github.com/nfrund/authtest/internal/view/dto/auth"
)

// ProtectedView is the authenticated view of one user. Mounting it starts the
// single "me" request; unmounting cancels that request and discards any
// result that arrives afterwards.
type ProtectedView struct {
	user   identity.User
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	active   bool
	me       *meapi.Response
	meErr    error
	finished bool
}

func newProtectedView(user identity.User, logger *slog.Logger) *ProtectedView {
	return &ProtectedView{user: user, logger: logger.With("uid", user.UID())}
}

// User returns the user the view was mounted for.
func (v *ProtectedView) User() identity.User {
	return v.user
}

// mount starts the token exchange and the "me" request on tasks. onSettled runs
// after a result has been recorded, never after unmount.
func (v *ProtectedView) mount(tasks *Tasks, fetcher meapi.Fetcher, onSettled func()) {
	v.ctx, v.cancel = context.WithCancel(tasks.Context())
	v.mu.Lock()
	v.active = true
	v.mu.Unlock()

	if fetcher == nil {
		return
	}
	tasks.Go("fetch-me", func(context.Context) error {
		resp, err := v.fetch(fetcher)
		if !v.settle(resp, err) {
			v.logger.Debug("Discarding me response for unmounted view")
			return nil
		}
		metrics.MeRequests.WithLabelValues(metrics.Result(err)).Inc()
		if onSettled != nil {
			defer onSettled()
		}
		if err != nil {
			return fmt.Errorf("fetch me: %w", err)
		}
		v.logger.Info("Fetched me", "status", resp.StatusCode, "body", string(resp.Body))
		return nil
	})
}

func (v *ProtectedView) fetch(fetcher meapi.Fetcher) (*meapi.Response, error) {
	token, err := v.user.Token(v.ctx)
	if err != nil {
		return nil, fmt.Errorf("get id token: %w", err)
	}
	return fetcher.Fetch(v.ctx, token)
}

// settle records the outcome unless the view has been unmounted in the meantime.
func (v *ProtectedView) settle(resp *meapi.Response, err error) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.active || v.ctx.Err() != nil {
		return false
	}
	v.me, v.meErr, v.finished = resp, err, true
	return true
}

func (v *ProtectedView) unmount() {
	v.mu.Lock()
	v.active = false
	v.mu.Unlock()
	if v.cancel != nil {
		v.cancel()
	}
}

// MeResult is the recorded outcome of the "me" request.
type MeResult struct {
	Response *meapi.Response
	Err      error
}

// Me returns the recorded outcome and whether the request has finished.
func (v *ProtectedView) Me() (MeResult, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return MeResult{Response: v.me, Err: v.meErr}, v.finished
}

func (v *ProtectedView) data() *auth.ProtectedData {
	d := &auth.ProtectedData{UID: v.user.UID(), Email: v.user.Email()}
	res, finished := v.Me()
	switch {
	case !finished:
	case res.Err != nil:
		d.MeStatus = "unavailable"
	default:
		d.MeStatus = fmt.Sprintf("%d %s", res.Response.StatusCode, http.StatusText(res.Response.StatusCode))
	}
	return d
}
