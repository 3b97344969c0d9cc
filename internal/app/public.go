package app

import (
	"errors"
	"fmt"

	"github.com/nfrund/authtest/internal/view/dto/auth"
)

// ErrUnknownTab is returned for a tab value outside {sign-up, sign-in}.
var ErrUnknownTab = errors.New("unknown tab")

// PublicView is the unauthenticated view. Exactly one form is mounted at a
// time; switching tabs discards the other form's inputs.
type PublicView struct {
	tab    auth.Tab
	signUp *SignUpForm
	signIn *SignInForm
}

func newPublicView() *PublicView {
	v := &PublicView{}
	v.mountTab(auth.TabSignIn)
	return v
}

// Tab returns the active tab.
func (v *PublicView) Tab() auth.Tab {
	return v.tab
}

func (v *PublicView) setTab(tab auth.Tab) error {
	switch tab {
	case auth.TabSignUp, auth.TabSignIn:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}
	if tab != v.tab {
		v.mountTab(tab)
	}
	return nil
}

func (v *PublicView) mountTab(tab auth.Tab) {
	v.tab = tab
	v.signUp, v.signIn = nil, nil
	if tab == auth.TabSignUp {
		v.signUp = NewSignUpForm()
	} else {
		v.signIn = NewSignInForm()
	}
}

// form returns the mounted form for name, or an error if that form is not visible.
func (v *PublicView) form(name string) (inputForm, error) {
	switch {
	case name == auth.FormSignUp && v.signUp != nil:
		return v.signUp, nil
	case name == auth.FormSignIn && v.signIn != nil:
		return v.signIn, nil
	}
	return nil, fmt.Errorf("%w: form %q is not shown", ErrNotAvailable, name)
}

func (v *PublicView) data() *auth.PublicData {
	d := &auth.PublicData{Tab: v.tab}
	if v.signUp != nil {
		d.SignUp = v.signUp.Data()
	}
	if v.signIn != nil {
		d.SignIn = v.signIn.Data()
	}
	return d
}
