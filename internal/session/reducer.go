package session

// State is the full in-memory session state. IsAuthenticated is derived: it
// is true exactly when a token is held, and only the reducer sets the two
// together.
type State struct {
	User            *User
	Token           string
	IsAuthenticated bool
	IsLoading       bool
	HasHydrated     bool
}

// effect names the persistence work a state transition owes. The reducer
// stays pure; the store executes effects after applying the new state.
type effect int

const (
	effectNone effect = iota
	// effectPersist mirrors the token into both channels and saves the
	// partial snapshot.
	effectPersist
	// effectClear removes the token from both channels and the snapshot.
	effectClear
)

func reduceSetAuth(s State, user User, token string) (State, effect) {
	s.User = &user
	s.Token = token
	s.IsAuthenticated = true
	s.IsLoading = false
	return s, effectPersist
}

func reduceClearAuth(s State) (State, effect) {
	s.User = nil
	s.Token = ""
	s.IsAuthenticated = false
	s.IsLoading = false
	return s, effectClear
}

func reduceSetUser(s State, user User) (State, effect) {
	s.User = &user
	return s, effectNone
}

func reduceSetLoading(s State, loading bool) (State, effect) {
	s.IsLoading = loading
	return s, effectNone
}

func reduceUpdateOnboardingStatus(s State, completed bool) (State, effect) {
	if s.User == nil {
		return s, effectNone
	}
	user := *s.User
	user.OnboardingCompleted = completed
	s.User = &user
	return s, effectNone
}
