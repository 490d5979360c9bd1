package domain

type LoginState string

const (
	LoginConnecting            LoginState = "connecting"
	LoginCheckingAuthorization LoginState = "checking_authorization"
	LoginAlreadyAuthorized     LoginState = "already_authorized"
	LoginCodeRequested         LoginState = "code_requested"
	LoginAwaitingCode          LoginState = "awaiting_code"
	LoginCodeSubmitted         LoginState = "code_submitted"
	LoginTwoFactorRequired     LoginState = "two_factor_required"
	LoginPasswordSubmitted     LoginState = "password_submitted"
	LoginAuthorized            LoginState = "authorized"
	LoginFailed                LoginState = "failed"
)

func (s LoginState) Terminal() bool {
	switch s {
	case LoginAlreadyAuthorized, LoginAuthorized, LoginFailed:
		return true
	default:
		return false
	}
}
