// Package app is the server-side application instance behind one browser
// session. It composes the public and protected views, reconciles them with
// the session observer and runs provider calls as fire-and-forget tasks.
package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/nfrund/authtest/internal/authstate"
	"github.com/nfrund/authtest/internal/identity"
	"github.com/nfrund/authtest/internal/metrics"
	"github.com/nfrund/authtest/internal/pubsub"
	"github.com/nfrund/authtest/internal/view/dto/auth"
)

// ErrNotAvailable is returned for an action the current screen does not offer.
var ErrNotAvailable = errors.New("action not available on the current screen")

// MismatchMessage is the warning raised when the sign-up confirmation differs.
const MismatchMessage = "Password does not match."

// App is one mounted application. All view state is derived from the
// observer's State and from the user's own input.
type App struct {
	id       string
	deps     Dependencies
	client   identity.Client
	observer *authstate.Observer
	logger   *slog.Logger

	mu        sync.Mutex
	mounted   bool
	tasks     *Tasks
	unobserve func()
	screen    auth.Screen
	public    *PublicView
	protected *ProtectedView
	notices   []auth.Notice
	lastSeen  time.Time
	now       func() time.Time
}

// New creates the application for session id. It holds a fresh provider
// client but does not listen to it until Mount.
func New(id string, deps Dependencies) *App {
	client := deps.Provider.NewClient()
	a := &App{
		id:       id,
		deps:     deps,
		client:   client,
		observer: authstate.NewObserver(client),
		logger:   slog.Default().With("component", "app", "app_id", id),
		screen:   auth.ScreenLoading,
		now:      time.Now,
	}
	a.lastSeen = a.now()
	return a
}

// ID returns the session id the application belongs to.
func (a *App) ID() string {
	return a.id
}

// Observer returns the application's session observer.
func (a *App) Observer() *authstate.Observer {
	return a.observer
}

// Mount starts observing the provider. Mounting a mounted app does nothing.
func (a *App) Mount() {
	a.mu.Lock()
	if a.mounted {
		a.mu.Unlock()
		return
	}
	a.mounted = true
	a.tasks = newTasks(a.logger)
	a.mu.Unlock()

	unobserve := a.observer.Subscribe(a.reconcile)
	a.mu.Lock()
	a.unobserve = unobserve
	a.mu.Unlock()

	a.observer.Mount()
	metrics.MountedApps.Inc()
	a.logger.Debug("Application mounted")

	// A remount continues from the state the observer already holds.
	a.reconcile(a.observer.State())
}

// Unmount stops observing the provider, tears down the mounted view and
// cancels outstanding tasks.
func (a *App) Unmount() {
	a.mu.Lock()
	if !a.mounted {
		a.mu.Unlock()
		return
	}
	a.mounted = false
	if a.protected != nil {
		a.protected.unmount()
		a.protected = nil
	}
	a.public = nil
	a.screen = auth.ScreenLoading
	tasks, unobserve := a.tasks, a.unobserve
	a.unobserve = nil
	a.mu.Unlock()

	a.observer.Unmount()
	if unobserve != nil {
		unobserve()
	}
	// Tasks may call back into the app, so they are stopped without a.mu held.
	tasks.Stop()
	metrics.MountedApps.Dec()
	a.logger.Debug("Application unmounted")
}

// Close unmounts the application and releases its provider client.
func (a *App) Close() error {
	a.Unmount()
	return a.client.Close()
}

// Mounted reports whether the application is mounted.
func (a *App) Mounted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mounted
}

// Touch records activity on the application.
func (a *App) Touch() {
	a.mu.Lock()
	a.lastSeen = a.now()
	a.mu.Unlock()
}

// LastSeen returns the time of the last recorded activity.
func (a *App) LastSeen() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastSeen
}

// Screen returns the screen the root currently renders.
func (a *App) Screen() auth.Screen {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.screen
}

// Protected returns the mounted protected view, or nil.
func (a *App) Protected() *ProtectedView {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.protected
}

// Snapshot returns everything the root renders.
func (a *App) Snapshot() auth.RootData {
	a.mu.Lock()
	defer a.mu.Unlock()
	d := auth.RootData{
		Screen:  a.screen,
		Notices: append([]auth.Notice(nil), a.notices...),
	}
	switch a.screen {
	case auth.ScreenPublic:
		if a.public != nil {
			d.Public = a.public.data()
		}
	case auth.ScreenProtected:
		if a.protected != nil {
			d.Protected = a.protected.data()
		}
	}
	return d
}

// reconcile derives the screen from the session state. It is the only place
// views are mounted or unmounted.
func (a *App) reconcile(state authstate.State) {
	a.mu.Lock()
	if !a.mounted {
		a.mu.Unlock()
		return
	}
	prev := a.screen
	switch {
	case !state.Initialized:
		a.screen = auth.ScreenLoading
	case state.User == nil:
		if a.protected != nil {
			a.protected.unmount()
			a.protected = nil
		}
		if a.public == nil {
			a.public = newPublicView()
		}
		a.screen = auth.ScreenPublic
	default:
		a.public = nil
		if a.protected == nil || a.protected.User().UID() != state.User.UID() {
			if a.protected != nil {
				a.protected.unmount()
			}
			a.protected = newProtectedView(state.User, a.logger)
			a.protected.mount(a.tasks, a.deps.Me, func() { a.requestRender("me") })
		}
		a.screen = auth.ScreenProtected
	}
	screen := a.screen
	a.mu.Unlock()

	if state.Initialized {
		kind := "signed_out"
		if state.SignedIn() {
			kind = "signed_in"
		}
		metrics.SessionEvents.WithLabelValues(kind).Inc()
	}
	if screen != prev {
		a.logger.Info("Screen changed", "from", prev, "to", screen)
	}
	a.requestRender("session")
}

// SetTab switches the public view's form.
func (a *App) SetTab(tab auth.Tab) error {
	a.mu.Lock()
	if a.screen != auth.ScreenPublic || a.public == nil {
		a.mu.Unlock()
		return ErrNotAvailable
	}
	a.notices = nil
	err := a.public.setTab(tab)
	a.mu.Unlock()
	if err != nil {
		return err
	}
	a.requestRender("tab")
	return nil
}

// ChangeInput feeds one field change of a visible form to its input.
func (a *App) ChangeInput(form, field, value string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.screen != auth.ScreenPublic || a.public == nil {
		return ErrNotAvailable
	}
	f, err := a.public.form(form)
	if err != nil {
		return err
	}
	in, err := f.Input(field)
	if err != nil {
		return err
	}
	in.Bind().OnChange(value)
	return nil
}

// SubmitSignUp applies values to the sign-up form and, when the field
// constraints hold, starts account creation. A password/confirmation mismatch
// raises a warning and, unless blocking is configured, creation still starts.
// It reports whether creation was started.
func (a *App) SubmitSignUp(values map[string]string) (bool, error) {
	a.mu.Lock()
	if a.screen != auth.ScreenPublic || a.public == nil {
		a.mu.Unlock()
		return false, ErrNotAvailable
	}
	f, err := a.public.form(auth.FormSignUp)
	if err != nil {
		a.mu.Unlock()
		return false, err
	}
	form := f.(*SignUpForm)
	if err := applyValues(form, values); err != nil {
		a.mu.Unlock()
		return false, err
	}
	a.notices = nil
	if errs := form.Validate(); len(errs) > 0 {
		a.mu.Unlock()
		return false, nil
	}
	if form.Mismatch() {
		a.notices = append(a.notices, auth.Notice{Level: auth.NoticeWarning, Message: MismatchMessage})
		if a.deps.BlockSignUpOnMismatch {
			a.mu.Unlock()
			a.logger.Info("Sign-up blocked on confirmation mismatch")
			return false, nil
		}
	}
	email, password := form.Email.Value(), form.Password.Value()
	a.mu.Unlock()

	started := a.runProviderOp("create_account", func(ctx context.Context) error {
		_, err := a.client.CreateAccount(ctx, email, password)
		return err
	})
	return started, nil
}

// SubmitSignIn applies values to the sign-in form and, when the field
// constraints hold, starts sign-in. It reports whether sign-in was started.
func (a *App) SubmitSignIn(values map[string]string) (bool, error) {
	a.mu.Lock()
	if a.screen != auth.ScreenPublic || a.public == nil {
		a.mu.Unlock()
		return false, ErrNotAvailable
	}
	f, err := a.public.form(auth.FormSignIn)
	if err != nil {
		a.mu.Unlock()
		return false, err
	}
	form := f.(*SignInForm)
	if err := applyValues(form, values); err != nil {
		a.mu.Unlock()
		return false, err
	}
	a.notices = nil
	if errs := form.Validate(); len(errs) > 0 {
		a.mu.Unlock()
		return false, nil
	}
	email, password := form.Email.Value(), form.Password.Value()
	a.mu.Unlock()

	started := a.runProviderOp("sign_in", func(ctx context.Context) error {
		_, err := a.client.SignIn(ctx, email, password)
		return err
	})
	return started, nil
}

// SignOut starts one provider sign-out.
func (a *App) SignOut() error {
	a.mu.Lock()
	if a.screen != auth.ScreenProtected {
		a.mu.Unlock()
		return ErrNotAvailable
	}
	a.notices = nil
	a.mu.Unlock()

	a.runProviderOp("sign_out", func(ctx context.Context) error {
		return a.client.SignOut(ctx)
	})
	return nil
}

// Notices returns the notices currently shown.
func (a *App) Notices() []auth.Notice {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]auth.Notice(nil), a.notices...)
}

// Wait blocks until every task started so far has returned.
func (a *App) Wait() {
	a.mu.Lock()
	tasks := a.tasks
	a.mu.Unlock()
	if tasks != nil {
		tasks.Wait()
	}
}

// Settle waits, at most until ctx is done, for running tasks to finish so a
// response can reflect their outcome.
func (a *App) Settle(ctx context.Context) error {
	a.mu.Lock()
	tasks := a.tasks
	a.mu.Unlock()
	if tasks == nil {
		return nil
	}
	return tasks.WaitContext(ctx)
}

// runProviderOp runs op as a task. Success is observed through the session
// listener; a failure is logged, counted and shown as a notice.
func (a *App) runProviderOp(operation string, op func(ctx context.Context) error) bool {
	a.mu.Lock()
	tasks := a.tasks
	mounted := a.mounted
	a.mu.Unlock()
	if !mounted {
		return false
	}
	return tasks.Go(operation, func(ctx context.Context) error {
		err := op(ctx)
		metrics.ProviderOperations.WithLabelValues(operation, metrics.Result(err)).Inc()
		if err == nil {
			return nil
		}
		if ctx.Err() == nil {
			a.addNotice(auth.Notice{Level: auth.NoticeError, Message: friendlyError(err)})
			a.requestRender(operation)
		}
		return err
	})
}

func (a *App) addNotice(n auth.Notice) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.mounted {
		return
	}
	a.notices = append(a.notices, n)
}

// requestRender asks the browser connection to re-render. Delivery is best
// effort; the next request or page load renders the current state anyway.
func (a *App) requestRender(reason string) {
	if a.deps.Publisher == nil {
		return
	}
	req := RenderRequest{Screen: string(a.Screen()), Reason: reason}
	if err := pubsub.Publish(context.Background(), a.deps.Publisher, RenderRequested, a.id, req); err != nil {
		a.logger.Warn("Failed to publish render request", "reason", reason, "error", err)
	}
}

// friendlyError maps provider errors to messages safe to show the user.
func friendlyError(err error) string {
	switch {
	case errors.Is(err, identity.ErrEmailExists):
		return "An account with this email already exists."
	case errors.Is(err, identity.ErrInvalidCredentials):
		return "Incorrect email or password."
	case errors.Is(err, identity.ErrWeakPassword):
		return "Password should be at least 6 characters."
	case errors.Is(err, identity.ErrInvalidEmail):
		return "The email address is badly formatted."
	default:
		return "Something went wrong. Please try again."
	}
}
