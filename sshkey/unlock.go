package sshkey

import (
	geErrors "github.com/brickster241/GitSign/utils/errors"
)

// State is a step of the passphrase state machine.
type State int

const (
	StatePrompting State = iota
	StateAttempting
	StateUnlocked
	StateCancelled
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StatePrompting:
		return "prompting"
	case StateAttempting:
		return "attempting"
	case StateUnlocked:
		return "unlocked"
	case StateCancelled:
		return "cancelled"
	case StateExhausted:
		return "exhausted"
	}
	return "unknown"
}

// Prompter asks the user for a passphrase. Returning an error wrapping
// errors.ErrCancelled aborts the unlock without further attempts.
type Prompter interface {
	Prompt(label string) (string, error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(label string) (string, error)

func (f PrompterFunc) Prompt(label string) (string, error) { return f(label) }

// DefaultLabel is shown by the prompt.
const DefaultLabel = "SSH key password:"

// Unlocker drives Prompting -> Attempting -> (Unlocked | back to Prompting).
type Unlocker struct {
	Prompter    Prompter
	Label       string
	MaxAttempts int                         // 0 retries forever
	OnRetry     func(attempt int, err error) // called after each wrong password

	history []State
}

// History returns every state entered by the last Unlock call.
func (u *Unlocker) History() []State {
	return append([]State(nil), u.history...)
}

// State returns the current state.
func (u *Unlocker) State() State {
	if len(u.history) == 0 {
		return StatePrompting
	}
	return u.history[len(u.history)-1]
}

func (u *Unlocker) enter(s State) {
	u.history = append(u.history, s)
}

// Unlock returns a decrypted key. Unencrypted keys are returned as-is.
func (u *Unlocker) Unlock(key *PrivateKey) (*PrivateKey, error) {
	u.history = nil
	if !key.IsEncrypted() {
		u.enter(StateUnlocked)
		return key, nil
	}

	label := u.Label
	if label == "" {
		label = DefaultLabel
	}

	for attempt := 1; ; attempt++ {
		u.enter(StatePrompting)
		password, err := u.Prompter.Prompt(label)
		if err != nil {
			if geErrors.Is(err, geErrors.ErrCancelled) {
				u.enter(StateCancelled)
				return nil, err
			}
			return nil, geErrors.E(geErrors.ErrIO, "read password", err)
		}

		u.enter(StateAttempting)
		unlocked, err := key.Decrypt(password)
		if err == nil {
			u.enter(StateUnlocked)
			return unlocked, nil
		}
		if !geErrors.Is(err, geErrors.ErrDecryptionFailed) {
			return nil, err
		}

		if u.OnRetry != nil {
			u.OnRetry(attempt, err)
		}
		if u.MaxAttempts > 0 && attempt >= u.MaxAttempts {
			u.enter(StateExhausted)
			return nil, geErrors.Wrapf(err, "gave up after %d attempts", attempt)
		}
	}
}
