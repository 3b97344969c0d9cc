package auth

// Screen is the top-level view the root renders.
type Screen string

const (
	ScreenLoading   Screen = "loading"
	ScreenPublic    Screen = "public"
	ScreenProtected Screen = "protected"
)

// Tab selects the form shown by the public view.
type Tab string

const (
	TabSignUp Tab = "sign-up"
	TabSignIn Tab = "sign-in"
)

// Other returns the tab the toggle link switches to.
func (t Tab) Other() Tab {
	if t == TabSignUp {
		return TabSignIn
	}
	return TabSignUp
}

// Form names used in routes and field posts.
const (
	FormSignUp = "sign-up"
	FormSignIn = "sign-in"
)

// Field names shared by the forms.
const (
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldConfirmation = "confirmation"
)

// NoticeLevel is the severity of a user-facing notice.
type NoticeLevel string

const (
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a message shown above the active view until dismissed by the next action.
type Notice struct {
	Level   NoticeLevel
	Message string
}

// SignUpData is the view model of the sign-up form. Passwords stay on the
// server and are never rendered back.
type SignUpData struct {
	Email string
	// Errors maps field names to constraint messages.
	Errors map[string]string
}

// SignInData is the view model of the sign-in form.
type SignInData struct {
	Email  string
	Errors map[string]string
}

// PublicData is the view model of the unauthenticated view. Exactly one of
// SignUp and SignIn is set, matching Tab.
type PublicData struct {
	Tab    Tab
	SignUp *SignUpData
	SignIn *SignInData
}

// ProtectedData is the view model of the authenticated view.
type ProtectedData struct {
	UID   string
	Email string
	// MeStatus is the backend's status line, empty until the request completes.
	MeStatus string
}

// RootData is everything the root renders.
type RootData struct {
	Screen    Screen
	Public    *PublicData
	Protected *ProtectedData
	Notices   []Notice
}
